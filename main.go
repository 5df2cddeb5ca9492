package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	log "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bin3/toyml/config"
	"github.com/bin3/toyml/corpus"
	"github.com/bin3/toyml/model"
	"github.com/bin3/toyml/storage"
)

var (
	configPath   = flag.String("config", "", "YAML configuration file")
	topicModel   = flag.String("model", "plsa", "model type: plsa (train.variant picks plain or background), bplsa, explsa or lda")
	docPath      = flag.String("docpath", "", "input file of documents, one per line")
	followeePath = flag.String("followeepath", "", "input file of followed celebrities, one line per user")
)

func main() {
	flag.Parse()
	defer log.Flush()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Exitf("failed to load configuration: %v", err)
	}
	if *docPath != "" {
		cfg.DocPath = *docPath
	}
	if *followeePath != "" {
		cfg.FolloweePath = *followeePath
	}

	ctor, err := model.GetModel(*topicModel)
	if err != nil {
		log.Exitf("%v, available: %v", err, model.Models())
	}

	// read training data
	docs := loadCorpus(cfg.DocPath)
	saveDict(cfg.DictPath, docs, cfg.DictDetailed)
	if cfg.TopWordPath != "" {
		if err := docs.SaveTopFreqWords(cfg.TopWordPath, cfg.TopNWord); err != nil {
			log.Exitf("failed to save top words to %s: %v", cfg.TopWordPath, err)
		}
	}
	data := []corpus.Reader{docs}
	fingerprints := map[string]uint32{"docs": docs.Fingerprint()}
	if *topicModel == "explsa" {
		follows := loadCorpus(cfg.FolloweePath)
		saveDict(cfg.CelPath, follows, cfg.DictDetailed)
		data = append(data, follows)
		fingerprints["follows"] = follows.Fingerprint()
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}
	if cfg.Train.DataDir != "" {
		if err := os.MkdirAll(cfg.Train.DataDir, 0o755); err != nil {
			log.Exitf("failed to create %s: %v", cfg.Train.DataDir, err)
		}
	}

	// init model
	m, err := ctor(cfg.Train, data...)
	if err != nil {
		log.Exitf("failed to init %s: %v", *topicModel, err)
	}
	if cfg.Journal.Path != "" {
		journal, err := storage.OpenJournal(cfg.Journal.Path, cfg.Journal.Engine)
		if err != nil {
			log.Exitf("%v", err)
		}
		defer journal.Close()
		if _, err := journal.Begin(m.Name(), cfg.Train, fingerprints); err != nil {
			log.Exitf("failed to start journal run: %v", err)
		}
		m.SetObserver(journal)
	}

	start := time.Now()
	niters := m.Train()
	elapsed := time.Since(start)
	perIter := time.Duration(0)
	if niters > 0 {
		perIter = elapsed / time.Duration(niters)
	}
	log.Infof("niters=%d, elapsed=%v, duration_per_iter=%v", niters, elapsed, perIter)
}

func loadCorpus(fn string) *corpus.Corpus {
	if fn == "" {
		log.Exit("no input file given")
	}
	c, err := corpus.LoadFile(fn)
	if err != nil {
		log.Exitf("failed to load %s: %v", fn, err)
	}
	return c
}

func saveDict(fn string, c *corpus.Corpus, detailed bool) {
	if fn == "" {
		return
	}
	if err := c.SaveDictionary(fn, detailed); err != nil {
		log.Exitf("failed to save dictionary to %s: %v", fn, err)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("metrics server stopped: %v", err)
	}
}
