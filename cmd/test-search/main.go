package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raine/places-collector/config"
	"github.com/raine/places-collector/internal/places"
)

func main() {
	municipality := flag.String("m", "", "Municipality (e.g., São Paulo)")
	category := flag.String("c", "restaurant", "Category id (e.g., restaurant)")
	key := flag.String("key", "", "Google Places API key (defaults to GOOGLE_PLACES_API_KEY)")
	maxPages := flag.Int("pages", 1, "Maximum number of pages to fetch")
	details := flag.Bool("details", false, "Look up phone and website for every place")
	rawJSON := flag.Bool("json", false, "Output raw JSON only")
	flag.Parse()

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	apiKey := *key
	if apiKey == "" {
		apiKey = cfg.PlacesAPIKey
	}
	if apiKey == "" || *municipality == "" {
		fmt.Fprintln(os.Stderr, "Usage: test-search -m <municipality> [-c category] [-key key]")
		os.Exit(2)
	}

	opts := cfg.Places
	opts.MaxPages = *maxPages
	client := places.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, err := client.Search(ctx, apiKey, *municipality, *category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if len(results) == 0 {
			os.Exit(1)
		}
	}

	contacts := make(map[string]places.Contact)
	if *details {
		for _, p := range results {
			contacts[p.PlaceID] = client.Contact(ctx, apiKey, p.PlaceID)
		}
	}

	if *rawJSON {
		out := struct {
			Query    string                    `json:"query"`
			Results  []places.Place            `json:"results"`
			Contacts map[string]places.Contact `json:"contacts,omitempty"`
		}{places.QueryFor(*category, *municipality), results, contacts}
		jsonBytes, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonBytes))
		return
	}

	fmt.Printf("Found %d results for %q\n\n", len(results), places.QueryFor(*category, *municipality))

	for i, p := range results {
		rating := "N/A"
		if p.Rating != nil {
			rating = fmt.Sprintf("%.1f", *p.Rating)
		}
		fmt.Printf("%d. %s - %s\n", i+1, p.Name, rating)
		if p.FormattedAddress != "" {
			fmt.Printf("   %s\n", p.FormattedAddress)
		}
		if c, ok := contacts[p.PlaceID]; ok {
			if c.Phone != "" {
				fmt.Printf("   %s\n", c.Phone)
			}
			if c.Website != "" {
				fmt.Printf("   %s\n", c.Website)
			}
		}
		fmt.Printf("   %s\n", places.MapLink(p.PlaceID))
	}
}
