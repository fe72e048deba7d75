// seed_analyses.go reads a watchlist of properties and queues an analysis
// for each through the Propgic API.
//
// Usage:
//
//	go run scripts/seed_analyses.go -list watchlist.md -api http://localhost:8700
//
// The watchlist is markdown: "## <analyser>" headers select the analyser
// for the items below them, and each "- " item is a street address or a
// listing URL. URLs are analysed immediately; addresses are queued.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type seedItem struct {
	Target       string
	AnalyserType string
}

func (i seedItem) isURL() bool {
	return strings.HasPrefix(i.Target, "http://") || strings.HasPrefix(i.Target, "https://")
}

func main() {
	listPath := flag.String("list", "watchlist.md", "path to the watchlist file")
	apiURL := flag.String("api", "http://localhost:8700", "Propgic API base URL")
	dryRun := flag.Bool("dry-run", false, "print items without posting")
	flag.Parse()

	f, err := os.Open(*listPath)
	if err != nil {
		log.Fatalf("open watchlist: %v", err)
	}
	defer f.Close()

	var items []seedItem
	var analyser string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "#") {
			analyser = strings.TrimSpace(strings.TrimLeft(line, "# "))
			if strings.EqualFold(analyser, "default") {
				analyser = ""
			}
			continue
		}
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		target := strings.TrimSpace(strings.TrimPrefix(line, "- "))
		// "- [x]" marks an item already analysed
		if strings.HasPrefix(target, "[x]") || strings.HasPrefix(target, "[X]") {
			continue
		}
		target = strings.TrimSpace(strings.TrimPrefix(target, "[ ]"))
		if target == "" {
			continue
		}
		items = append(items, seedItem{Target: target, AnalyserType: analyser})
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("scan watchlist: %v", err)
	}

	log.Printf("parsed %d items from %s", len(items), *listPath)

	if *dryRun {
		for i, item := range items {
			kind := "address"
			if item.isURL() {
				kind = "url"
			}
			analyser := item.AnalyserType
			if analyser == "" {
				analyser = "(default)"
			}
			fmt.Printf("[%d] %s (kind=%s, analyser=%s)\n", i+1, item.Target, kind, analyser)
		}
		return
	}

	client := &http.Client{Timeout: 60 * time.Second}
	created, skipped := 0, 0
	for _, item := range items {
		path, body := "/api/v1/analyses", map[string]string{
			"property_address": item.Target,
			"analyser_type":    item.AnalyserType,
		}
		if item.isURL() {
			path, body = "/api/v1/analyses/by-url", map[string]string{
				"url":           item.Target,
				"analyser_type": item.AnalyserType,
			}
		}
		data, _ := json.Marshal(body)
		resp, err := client.Post(*apiURL+path, "application/json", bytes.NewReader(data))
		if err != nil {
			log.Printf("skip %q: %v", item.Target, err)
			skipped++
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			created++
		} else {
			log.Printf("skip %q: status %d", item.Target, resp.StatusCode)
			skipped++
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
