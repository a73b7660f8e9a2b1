package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint = "https://nominatim.openstreetmap.org/search"
	cacheFileName   = "geocode_cache.json"
)

var ErrNoResults = errors.New("no geocoding results")

type Geocoder struct {
	logger    *logrus.Logger
	cacheDir  string
	cache     map[string][]float64
	cacheLock sync.RWMutex
	client    *http.Client
	endpoint  string
	// delay between Nominatim requests, per its usage policy
	delay    time.Duration
	lastCall time.Time
	callLock sync.Mutex
}

// NewGeocoder creates a Nominatim geocoder for UK addresses. Results are
// cached in cacheDir when it is set.
func NewGeocoder(logger *logrus.Logger, cacheDir string) *Geocoder {
	if logger == nil {
		logger = logrus.New()
	}

	g := &Geocoder{
		logger:   logger,
		cacheDir: cacheDir,
		cache:    make(map[string][]float64),
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: DefaultEndpoint,
		delay:    time.Second,
	}

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logger.WithError(err).Warn("Could not create geocode cache directory")
		}
		g.loadCache()
	}

	return g
}

// SetEndpoint replaces the search URL and request spacing
func (g *Geocoder) SetEndpoint(endpoint string, delay time.Duration) {
	g.endpoint = endpoint
	g.delay = delay
}

func (g *Geocoder) loadCache() {
	cacheFile := filepath.Join(g.cacheDir, cacheFileName)
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.Warnf("Could not load geocode cache: %v", err)
		}
		return
	}

	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		return
	}

	g.logger.Infof("Loaded %d cached addresses", len(g.cache))
}

func (g *Geocoder) saveCache() {
	if g.cacheDir == "" {
		return
	}

	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	cacheFile := filepath.Join(g.cacheDir, cacheFileName)
	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
		return
	}

	g.logger.Debug("Saved geocode cache to disk")
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func cacheKey(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Geocode resolves a UK site address to a point (longitude, latitude)
func (g *Geocoder) Geocode(ctx context.Context, address string) (orb.Point, error) {
	key := cacheKey(address)
	if key == "" {
		return orb.Point{}, fmt.Errorf("failed to geocode: empty address")
	}

	g.cacheLock.RLock()
	coords, ok := g.cache[key]
	g.cacheLock.RUnlock()
	if ok {
		if len(coords) != 2 {
			return orb.Point{}, fmt.Errorf("invalid cached coordinates for %q", address)
		}
		g.logger.WithFields(logrus.Fields{
			"address":   address,
			"latitude":  coords[0],
			"longitude": coords[1],
			"source":    "cache",
		}).Debug("Found coordinates in cache")
		return orb.Point{coords[1], coords[0]}, nil
	}

	if err := g.wait(ctx); err != nil {
		return orb.Point{}, err
	}

	params := url.Values{
		"q":            []string{address},
		"format":       []string{"json"},
		"limit":        []string{"1"},
		"countrycodes": []string{"gb"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		return orb.Point{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", "DealFlow Appraisal Service/1.0")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("address", address).Error("Geocoding request failed")
		return orb.Point{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return orb.Point{}, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return orb.Point{}, fmt.Errorf("failed to read response: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return orb.Point{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result) == 0 {
		g.logger.WithField("address", address).Warn("No results found")
		return orb.Point{}, fmt.Errorf("%w for address: %s", ErrNoResults, address)
	}

	var lat, lon float64
	if _, err := fmt.Sscanf(result[0].Lat, "%f", &lat); err != nil {
		return orb.Point{}, fmt.Errorf("failed to parse latitude %q: %w", result[0].Lat, err)
	}
	if _, err := fmt.Sscanf(result[0].Lon, "%f", &lon); err != nil {
		return orb.Point{}, fmt.Errorf("failed to parse longitude %q: %w", result[0].Lon, err)
	}

	g.logger.WithFields(logrus.Fields{
		"address":   address,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded address")

	g.cacheLock.Lock()
	g.cache[key] = []float64{lat, lon}
	g.cacheLock.Unlock()
	g.saveCache()

	return orb.Point{lon, lat}, nil
}

// wait spaces outgoing requests by g.delay
func (g *Geocoder) wait(ctx context.Context) error {
	g.callLock.Lock()
	defer g.callLock.Unlock()

	if remaining := g.delay - time.Since(g.lastCall); remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	g.lastCall = time.Now()
	return nil
}
