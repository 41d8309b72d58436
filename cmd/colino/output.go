package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/colinohq/colino/youtube"
)

func printJson(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSubscriptions(subs []youtube.Subscription) {
	fmt.Printf("\nFound %d subscriptions:\n\n", len(subs))
	fmt.Println(strings.Repeat("-", 80))

	for i, sub := range subs {
		fmt.Printf("%3d. %s\n", i+1, sub.ChannelTitle)
		fmt.Printf("     Channel ID: %s\n", sub.ChannelId)
		fmt.Printf("     Subscribed: %s\n", sub.PublishedAt)
		if sub.Description != "" {
			fmt.Printf("     Description: %s\n", truncate(sub.Description, 100))
		}
		fmt.Println()
	}
}

func printChannels(channels []youtube.Channel) {
	fmt.Printf("\nFound %d channels:\n\n", len(channels))
	fmt.Println(strings.Repeat("-", 80))

	for i, ch := range channels {
		fmt.Printf("%3d. %s\n", i+1, ch.Title)
		fmt.Printf("     Channel ID: %s\n", ch.Id)
		fmt.Printf("     Created: %s\n", ch.PublishedAt)
		if ch.Description != "" {
			fmt.Printf("     Description: %s\n", truncate(ch.Description, 100))
		}
		fmt.Println()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
