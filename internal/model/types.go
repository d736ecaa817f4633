package model

import "time"

// Wire and storage types shared by the API, store, and alert layers.

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RegionCoord is one entry of the region coordinate map.
type RegionCoord struct {
	Name     string  `json:"name,omitempty"`
	District string  `json:"district,omitempty"`
	Taluk    string  `json:"taluk,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// RegionTree is district -> taluk -> sorted hobli names.
type RegionTree map[string]map[string][]string

// RainfallRecord is one day of 24h rainfall for a hobli. NormalMM and DepPct
// are pointers because not every monthly sheet carries them.
type RainfallRecord struct {
	Date     string   `json:"date"`
	District string   `json:"district,omitempty"`
	Taluk    string   `json:"taluk,omitempty"`
	Month    string   `json:"month"`
	NormalMM *float64 `json:"normalMm,omitempty"`
	ActualMM float64  `json:"actualMm"`
	DepPct   *float64 `json:"depPct,omitempty"`
}

type SimulateRequest struct {
	Region     string  `json:"region"`
	RainfallMM float64 `json:"rainfallMm"`
	Steps      int     `json:"steps,omitempty"`
	Decay      float64 `json:"decay,omitempty"`
}

type SimulateResponse struct {
	Region       string        `json:"region"`
	Steps        int           `json:"steps"`
	MaxDepthM    float64       `json:"maxDepthM"`
	AtRiskNodes  int           `json:"atRiskNodes"`
	FloodedRoads []FloodedRoad `json:"floodedRoads"`
}

type FloodedRoad struct {
	U       int64   `json:"u"`
	V       int64   `json:"v"`
	DepthCM float64 `json:"depthCm"`
	Risk    string  `json:"risk"`
}

type PlanRequest struct {
	Region      string  `json:"region"`
	RainfallMM  float64 `json:"rainfallMm"`
	Population  int     `json:"population,omitempty"`
	Generations int     `json:"generations,omitempty"`
	PopSize     int     `json:"popSize,omitempty"`
	Seed        int64   `json:"seed,omitempty"`
}

type PlanRoute struct {
	FromCluster int64        `json:"fromCluster"`
	ToShelter   string       `json:"toShelter"`
	Pop         int          `json:"pop"`
	Path        [][2]float64 `json:"path"`
	Fallback    bool         `json:"fallback,omitempty"`
}

type PlanMetrics struct {
	Generations int     `json:"generations"`
	PopSize     int     `json:"popSize"`
	Evaluations int     `json:"evaluations"`
	SeedFitness float64 `json:"seedFitness"`
	BestFitness float64 `json:"bestFitness"`
	ElapsedMs   int64   `json:"elapsedMs"`
}

// Plan is a stored evacuation plan run.
type Plan struct {
	ID        string      `json:"id"`
	Region    string      `json:"region"`
	Request   PlanRequest `json:"request"`
	Routes    []PlanRoute `json:"routes"`
	Metrics   PlanMetrics `json:"metrics"`
	CreatedAt time.Time   `json:"createdAt"`
}

type ShelterOut struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Type     string  `json:"type,omitempty"`
	Capacity int     `json:"capacity"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// AlertSubscription registers a webhook endpoint for plan and flood alerts.
type AlertSubscription struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Secret    string    `json:"secret,omitempty"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// AlertDelivery is one queued webhook send.
type AlertDelivery struct {
	ID             string     `json:"id"`
	SubscriptionID string     `json:"subscriptionId"`
	Event          string     `json:"event"`
	Payload        []byte     `json:"-"`
	Attempts       int        `json:"attempts"`
	Status         string     `json:"status"`
	NextAttemptAt  time.Time  `json:"nextAttemptAt"`
	LastError      string     `json:"lastError,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
}

const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)
