package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/common"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/server"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/storage"
	listSync "github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/sync"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/tracking"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

var enableProfiling = flag.Bool("profiling", true, "enable profiling endpoints")
var dataFolder = flag.String("data", "data", "snapshot folder")
var rabbitVHost = os.Getenv("RABBIT_HOST")
var rabbitUrl = os.Getenv("RABBIT_URL")
var clientName = os.Getenv("NODE_NAME")
var redisUrl = os.Getenv("REDIS_URL")
var redisPassword = os.Getenv("REDIS_PASSWORD")
var listenAddress = ":8080"
var debugAddress = ":8081"

var rabbitConfig = listSync.RabbitConfig{
	Url:         rabbitUrl,
	VHost:       rabbitVHost,
	TopicPrefix: "listan",
}

var registry = collection.NewRegistry()
var db *storage.DiskStorage
var srv *server.WebServer

var masterTransport *listSync.RabbitTransportMaster
var masterHandler *listSync.RabbitMasterChangeHandler
var clientTransport *listSync.RabbitTransportClient

var done = false

func init() {
	flag.Parse()
	db = storage.NewDiskStorage(*dataFolder)
	srv = server.NewWebServer(registry, db)
}

// The shop's stock list views. Collections are configured, not coded; these
// settings apply on first boot only and stay editable through the admin
// settings endpoint afterwards.
var defaultCollections = []struct {
	name     string
	settings collection.Settings
}{
	{"instruments", collection.Settings{
		SearchFields: []string{"maker", "model", "serial", "notes"},
		Categories: []types.FilterCategory{
			{Name: "type"},
			{Name: "maker"},
			{Name: "tags"},
			{Name: "status", Scalar: true},
		},
		DateField:   "acquired",
		DefaultSort: types.SortState{Field: "maker", Order: types.SortAscending},
		Operator:    true,
	}},
	{"clients", collection.Settings{
		SearchFields: []string{"name", "email", "phone", "city"},
		Categories: []types.FilterCategory{
			{Name: "interest"},
			{Name: "tags"},
			{Name: "city", Scalar: true},
		},
		DateField:   "lastContact",
		DefaultSort: types.SortState{Field: "name", Order: types.SortAscending},
	}},
	{"invoices", collection.Settings{
		SearchFields: []string{"number", "client", "items"},
		Categories: []types.FilterCategory{
			{Name: "method"},
			{Name: "status", Scalar: true},
		},
		DateField:   "issued",
		DefaultSort: types.SortState{Field: "issued", Order: types.SortDescending},
	}},
}

func seedDefaultCollections() {
	for _, entry := range defaultCollections {
		if _, ok := registry.Get(entry.name); !ok {
			registry.Ensure(entry.name, entry.settings)
			log.Printf("Seeded default collection %s", entry.name)
		}
	}
}

func LoadCollections(wg *sync.WaitGroup) {
	log.Printf("amqp url: %s", rabbitUrl)
	log.Printf("clientName: %s", clientName)

	isMaster := rabbitUrl != "" && clientName == ""
	if isMaster {
		log.Println("Starting with reduced memory consumption")
	} else if redisUrl != "" {
		srv.Cache = server.NewCache(redisUrl, redisPassword, 0)
		srv.Views = server.NewViewStore(redisUrl, redisPassword, 0)
		srv.Views.StartListeningForChanges(context.Background())
		log.Printf("Cache and saved views enabled, url: %s", redisUrl)
	}

	if rabbitUrl != "" {
		trk, err := tracking.NewRabbitTracking(rabbitUrl)
		if err != nil {
			log.Fatalf("Failed to create rabbit tracking")
		}
		srv.Tracking = trk
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := db.LoadCollections(registry); err != nil {
			log.Printf("Failed to load collections %v", err)
		} else {
			log.Printf("Collections loaded, %d records", registry.TotalRecords())
		}
		seedDefaultCollections()

		if isMaster {
			log.Println("Starting as master")
			masterTransport = &listSync.RabbitTransportMaster{
				RabbitConfig: rabbitConfig,
			}
			if err := masterTransport.Connect(); err != nil {
				log.Printf("Failed to connect to RabbitMQ as master, %v", err)
			} else {
				log.Print("Connected to RabbitMQ as master")
				masterHandler = listSync.NewRabbitMasterChangeHandler(masterTransport)
				registry.SetChangeHandler(masterHandler)
			}
		} else {
			if clientName == "" {
				log.Printf("Starting as standalone")
			} else {
				log.Printf("Starting as client: %s", clientName)
			}
			if rabbitUrl != "" {
				clientTransport = &listSync.RabbitTransportClient{
					RabbitConfig: rabbitConfig,
				}
				if err := clientTransport.Connect(registry); err != nil {
					log.Fatalf("Failed to connect to RabbitMQ as client, %v", err)
				}
			}
		}

		runtime.GC()
		done = true
	}()
}

func shutdownHooks() []common.ShutdownHook {
	return []common.ShutdownHook{
		func(ctx context.Context) error {
			if masterHandler != nil {
				masterHandler.Stop()
			}
			return nil
		},
		func(ctx context.Context) error {
			// Clients mirror the master's data and never own the snapshot.
			if clientName != "" {
				return nil
			}
			return db.SaveCollections(registry)
		},
		func(ctx context.Context) error {
			if masterTransport != nil {
				if err := masterTransport.Close(); err != nil {
					log.Printf("Failed to close master transport: %v", err)
				}
			}
			if clientTransport != nil {
				if err := clientTransport.Close(); err != nil {
					log.Printf("Failed to close client transport: %v", err)
				}
			}
			if srv.Tracking != nil {
				if err := srv.Tracking.Close(); err != nil {
					log.Printf("Failed to close tracking: %v", err)
				}
			}
			if srv.Cache != nil {
				if err := srv.Cache.Close(); err != nil {
					log.Printf("Failed to close cache: %v", err)
				}
			}
			if srv.Views != nil {
				if err := srv.Views.Close(); err != nil {
					log.Printf("Failed to close view store: %v", err)
				}
			}
			return nil
		},
	}
}

func main() {
	wg := sync.WaitGroup{}
	LoadCollections(&wg)

	debugMux := http.NewServeMux()
	debugMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !done {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	debugMux.Handle("/metrics", promhttp.Handler())

	if enableProfiling != nil && *enableProfiling {
		log.Println("Profiling enabled")
		debugMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	go func() {
		log.Printf("Starting debug server %v", debugAddress)
		log.Fatal(http.ListenAndServe(debugAddress, debugMux))
	}()

	mux := http.NewServeMux()
	log.Println("Waiting for collections to load...")
	wg.Wait()
	log.Println("Starting api")

	mux.Handle("/admin/", http.StripPrefix("/admin", srv.AdminHandler()))
	mux.Handle("/api/", http.StripPrefix("/api", srv.ClientHandler()))

	cfg := common.LoadTimeoutConfig(common.TimeoutConfig{
		ReadHeader: 5 * time.Second,
		Read:       15 * time.Second,
		Write:      30 * time.Second,
		Idle:       60 * time.Second,
		Shutdown:   15 * time.Second,
		Hook:       5 * time.Second,
	})
	apiServer := common.NewServerWithTimeouts(&http.Server{Addr: listenAddress, Handler: mux}, cfg)
	common.RunServerWithShutdown(apiServer, "list api", cfg.Shutdown, cfg.Hook, shutdownHooks()...)
}
