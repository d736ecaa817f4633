// Package main runs a demo WebSocket client against the flood stream.
package main

import (
	"log"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	region := os.Getenv("REGION")
	if region == "" {
		region = "hebbal"
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     "localhost:" + port,
		Path:     "/v1/simulate/stream",
		RawQuery: "region=" + url.QueryEscape(region) + "&rainfallMm=60&steps=20",
	}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	for {
		var frame struct {
			Step        int     `json:"step"`
			MaxDepthM   float64 `json:"maxDepthM"`
			AtRiskNodes int     `json:"atRiskNodes"`
			Done        bool    `json:"done"`
		}
		if err := c.ReadJSON(&frame); err != nil {
			log.Printf("read: %v", err)
			return
		}
		log.Printf("step %d: maxDepth=%.3fm atRisk=%d", frame.Step, frame.MaxDepthM, frame.AtRiskNodes)
		if frame.Done {
			return
		}
	}
}
