// Package storage persists the collection registry as gzipped gob
// snapshots on local disk.
package storage

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"time"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
)

func init() {
	// DataRecord fields travel as interface values.
	gob.Register("")
	gob.Register(float64(0))
	gob.Register(true)
	gob.Register([]string{})
	gob.Register(time.Time{})
}

const collectionsFile = "collections.gob.gz"

type DiskStorage struct {
	RootFolder string
}

func NewDiskStorage(rootFolder string) *DiskStorage {
	return &DiskStorage{
		RootFolder: rootFolder,
	}
}

func (ds *DiskStorage) GetFileName(name string) (string, string) {
	fileName := path.Join(ds.RootFolder, name)
	tmpFileName := fileName + ".tmp-" + fmt.Sprintf("%d", time.Now().UnixMilli())
	return fileName, tmpFileName
}

// SaveCollections writes a snapshot of every collection.
func (ds *DiskStorage) SaveCollections(registry *collection.Registry) error {
	snapshots := registry.Snapshot()
	total := 0
	for _, snapshot := range snapshots {
		total += len(snapshot.Records)
	}
	log.Printf("Saving %d collections with %d records", len(snapshots), total)
	return ds.SaveGzippedGob(snapshots, collectionsFile)
}

// LoadCollections restores the latest snapshot into registry. A missing
// snapshot file is a fresh start, not an error.
func (ds *DiskStorage) LoadCollections(registry *collection.Registry) error {
	snapshots := []collection.Snapshot{}
	if err := ds.LoadGzippedGob(&snapshots, collectionsFile); err != nil {
		return err
	}
	registry.Restore(snapshots)
	return nil
}

func (ds *DiskStorage) SaveGzippedGob(data any, name string) error {
	if err := os.MkdirAll(ds.RootFolder, 0755); err != nil {
		return err
	}
	fileName, tmpFileName := ds.GetFileName(name)

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}

	zipWriter := gzip.NewWriter(file)
	enc := gob.NewEncoder(zipWriter)

	if err = enc.Encode(data); err != nil {
		_ = zipWriter.Close()
		_ = file.Close()
		_ = os.Remove(tmpFileName)
		return err
	}

	if err = zipWriter.Close(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFileName)
		return err
	}

	if err = file.Close(); err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}

	if err = os.Rename(tmpFileName, fileName); err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}

	return nil
}

func (ds *DiskStorage) LoadGzippedGob(output any, name string) error {
	fileName, _ := ds.GetFileName(name)
	file, err := os.Open(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("File not found: %s", fileName)
			return nil
		}
		return err
	}
	defer file.Close()

	zipReader, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer zipReader.Close()

	dec := gob.NewDecoder(zipReader)
	if err = dec.Decode(output); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}
