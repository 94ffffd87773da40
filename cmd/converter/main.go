package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/storage"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

var dataFolder = flag.String("data", "data", "snapshot folder")
var settingsFile = flag.String("settings", "", "collection settings json")

func readCsvFile(filePath string) [][]string {
	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Unable to read input file "+filePath, err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.Comma = ';'
	records, err := csvReader.ReadAll()
	if err != nil {
		log.Fatal("Unable to parse file as CSV for "+filePath, err)
	}

	return records
}

func collectionName(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// recordsFromCsv turns data rows into records. The header row names the
// fields, an "id" column keys the records, empty cells stay unset and
// "|"-separated cells become arrays.
func recordsFromCsv(rows [][]string) []*types.DataRecord {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	idColumn := -1
	for i, name := range header {
		if strings.EqualFold(name, "id") {
			idColumn = i
			break
		}
	}
	out := make([]*types.DataRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := &types.DataRecord{
			Id:     types.RecordId(strconv.Itoa(i + 1)),
			Fields: map[string]any{},
		}
		for col, cell := range row {
			if col >= len(header) || cell == "" {
				continue
			}
			if col == idColumn {
				rec.Id = types.RecordId(cell)
				continue
			}
			if strings.Contains(cell, "|") {
				rec.Fields[header[col]] = strings.Split(cell, "|")
				continue
			}
			rec.Fields[header[col]] = cell
		}
		out = append(out, rec)
	}
	return out
}

func applySettings(registry *collection.Registry, filePath string) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("Unable to read settings file %s: %v", filePath, err)
	}
	settings := map[string]collection.Settings{}
	if err := sonic.Unmarshal(data, &settings); err != nil {
		log.Fatalf("Unable to parse settings file %s: %v", filePath, err)
	}
	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		registry.Ensure(name, settings[name])
		log.Printf("Applied settings for %s", name)
	}
}

func main() {
	flag.Parse()
	files := flag.Args()
	if len(files) == 0 && *settingsFile == "" {
		log.Fatal("Usage: converter [-data folder] [-settings file.json] file.csv ...")
	}

	db := storage.NewDiskStorage(*dataFolder)
	registry := collection.NewRegistry()
	if err := db.LoadCollections(registry); err != nil {
		log.Fatalf("Could not load collections: %v", err)
	}

	if *settingsFile != "" {
		applySettings(registry, *settingsFile)
	}

	for _, file := range files {
		name := collectionName(file)
		records := recordsFromCsv(readCsvFile(file))
		registry.Upsert(name, records...)
		log.Printf("Imported %d records into %s", len(records), name)
	}

	if err := db.SaveCollections(registry); err != nil {
		log.Fatalf("Could not save collections: %v", err)
	}
	log.Printf("Done, %d records total", registry.TotalRecords())
}
