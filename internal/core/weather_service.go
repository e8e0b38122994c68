package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kisanmitra/agri-advisor/internal/cache"
	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/logger"
)

type Location struct {
	Name      string  `json:"name"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

func (l Location) String() string {
	parts := []string{l.Name}
	if l.State != "" && l.State != l.Name {
		parts = append(parts, l.State)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	return strings.Join(parts, ", ")
}

type DailyWeather struct {
	Date                     string  `json:"date"`
	TempMax                  float64 `json:"temp_max"`
	TempMin                  float64 `json:"temp_min"`
	TempAvg                  float64 `json:"temp_avg"`
	Precipitation            float64 `json:"precipitation_mm"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
	Humidity                 float64 `json:"humidity"`
	WindSpeed                float64 `json:"wind_speed_kmh"`
	WindDirection            string  `json:"wind_direction"`
	Condition                string  `json:"condition"`
}

type SoilMoisture struct {
	Status                string  `json:"status"`
	Risk                  string  `json:"risk,omitempty"`
	RecentPrecipitation   float64 `json:"recent_precipitation_mm"`
	ForecastPrecipitation float64 `json:"forecast_precipitation_mm"`
}

type Insights struct {
	SoilMoisture      SoilMoisture `json:"soil_moisture"`
	TemperatureStress string       `json:"temperature_stress"`
	IrrigationNeeded  bool         `json:"irrigation_needed"`
	IrrigationStatus  string       `json:"irrigation_status"`
	PestRisk          string       `json:"pest_risk"`
	HarvestTiming     string       `json:"harvest_timing"`
	Recommendations   []string     `json:"recommendations"`
}

type WeatherReport struct {
	Location    Location       `json:"location"`
	Historical  []DailyWeather `json:"historical"`
	Forecast    []DailyWeather `json:"forecast"`
	Insights    Insights       `json:"insights"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Current is the most recent observed day, if any.
func (r *WeatherReport) Current() (DailyWeather, bool) {
	if len(r.Historical) == 0 {
		return DailyWeather{}, false
	}
	return r.Historical[len(r.Historical)-1], true
}

// WeatherProvider builds weather reports for a place name.
type WeatherProvider interface {
	Report(ctx context.Context, location string) (*WeatherReport, error)
}

type WeatherService struct {
	httpClient *http.Client
	cfg        config.WeatherConfig
	cache      cache.Cache
	log        logger.Logger
}

func NewWeatherService(cfg config.WeatherConfig, c cache.Cache, log logger.Logger) *WeatherService {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WeatherService{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		cache:      c,
		log:        log,
	}
}

func (s *WeatherService) get(ctx context.Context, base string, params url.Values) ([]byte, error) {
	if s.cfg.APIKey != "" {
		params.Set("apikey", s.cfg.APIKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeatherAPI, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrWeatherAPI, err)
	}
	if resp.StatusCode != http.StatusOK {
		reason := gjson.GetBytes(body, "reason").String()
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrWeatherAPI, resp.StatusCode, reason)
	}
	return body, nil
}

// Geocode resolves a place name to coordinates.
func (s *WeatherService) Geocode(ctx context.Context, name string) (*Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrLocationNotFound
	}
	// The geocoder matches on the first component only.
	query := strings.TrimSpace(strings.Split(name, ",")[0])
	body, err := s.get(ctx, s.cfg.GeocodingURL, url.Values{
		"name":     {query},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	})
	if err != nil {
		return nil, err
	}
	first := gjson.GetBytes(body, "results.0")
	if !first.Exists() {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, name)
	}
	return &Location{
		Name:      first.Get("name").String(),
		State:     first.Get("admin1").String(),
		Country:   first.Get("country").String(),
		Latitude:  first.Get("latitude").Float(),
		Longitude: first.Get("longitude").Float(),
		Timezone:  first.Get("timezone").String(),
	}, nil
}

var dailyVariables = []string{
	"weather_code",
	"temperature_2m_max",
	"temperature_2m_min",
	"precipitation_sum",
	"precipitation_probability_max",
	"relative_humidity_2m_mean",
	"wind_speed_10m_max",
	"wind_direction_10m_dominant",
}

// Report returns observed days followed by the forecast, plus derived insights.
// Reports are cached per place name.
func (s *WeatherService) Report(ctx context.Context, location string) (*WeatherReport, error) {
	key := "weather:" + strings.ToLower(strings.TrimSpace(location))
	var cached WeatherReport
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("weather cache read failed", map[string]interface{}{"error": err.Error()})
	}

	loc, err := s.Geocode(ctx, location)
	if err != nil {
		return nil, err
	}

	body, err := s.get(ctx, s.cfg.ForecastURL, url.Values{
		"latitude":      {strconv.FormatFloat(loc.Latitude, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(loc.Longitude, 'f', 4, 64)},
		"daily":         {strings.Join(dailyVariables, ",")},
		"past_days":     {strconv.Itoa(s.cfg.HistoryDays)},
		"forecast_days": {strconv.Itoa(s.cfg.ForecastDays)},
		"timezone":      {"auto"},
	})
	if err != nil {
		return nil, err
	}

	days := parseDaily(body)
	split := min(max(s.cfg.HistoryDays, 0), len(days))
	report := &WeatherReport{
		Location:    *loc,
		Historical:  days[:split],
		Forecast:    days[split:],
		GeneratedAt: time.Now().UTC(),
	}
	report.Insights = DeriveInsights(report.Historical, report.Forecast)

	if err := s.cache.SetJSON(ctx, key, report); err != nil {
		s.log.Warn("weather cache write failed", map[string]interface{}{"error": err.Error()})
	}
	s.log.Info("weather report fetched", map[string]interface{}{
		"location": loc.String(), "historical": len(report.Historical), "forecast": len(report.Forecast),
	})
	return report, nil
}

func parseDaily(body []byte) []DailyWeather {
	daily := gjson.GetBytes(body, "daily")
	dates := daily.Get("time").Array()
	col := func(name string, i int) float64 {
		v := daily.Get(name).Array()
		if i >= len(v) {
			return 0
		}
		return v[i].Float()
	}

	out := make([]DailyWeather, 0, len(dates))
	for i, d := range dates {
		maxT, minT := col("temperature_2m_max", i), col("temperature_2m_min", i)
		out = append(out, DailyWeather{
			Date:                     d.String(),
			TempMax:                  maxT,
			TempMin:                  minT,
			TempAvg:                  round1((maxT + minT) / 2),
			Precipitation:            col("precipitation_sum", i),
			PrecipitationProbability: col("precipitation_probability_max", i),
			Humidity:                 col("relative_humidity_2m_mean", i),
			WindSpeed:                col("wind_speed_10m_max", i),
			WindDirection:            compassPoint(col("wind_direction_10m_dominant", i)),
			Condition:                weatherCondition(int(col("weather_code", i))),
		})
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func compassPoint(deg float64) string {
	points := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	idx := int(math.Round(math.Mod(deg+360, 360)/45)) % len(points)
	return points[idx]
}

// weatherCondition maps WMO weather codes to a short description.
func weatherCondition(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 3:
		return "partly cloudy"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code >= 85 && code <= 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}

// DeriveInsights turns recent and forecast weather into farming signals.
func DeriveInsights(historical, forecast []DailyWeather) Insights {
	recent := historical[max(len(historical)-7, 0):]
	var ins Insights
	for _, d := range recent {
		ins.SoilMoisture.RecentPrecipitation += d.Precipitation
	}
	var maxTemp, minTemp, humiditySum, tempSum float64
	minTemp = math.Inf(1)
	maxTemp = math.Inf(-1)
	rainyDays, rainSoon := 0, false
	for i, d := range forecast {
		ins.SoilMoisture.ForecastPrecipitation += d.Precipitation
		maxTemp = math.Max(maxTemp, d.TempMax)
		minTemp = math.Min(minTemp, d.TempMin)
		humiditySum += d.Humidity
		tempSum += d.TempAvg
		if d.Precipitation >= 5 {
			rainyDays++
			if i < 2 {
				rainSoon = true
			}
		}
	}
	ins.SoilMoisture.RecentPrecipitation = round1(ins.SoilMoisture.RecentPrecipitation)
	ins.SoilMoisture.ForecastPrecipitation = round1(ins.SoilMoisture.ForecastPrecipitation)
	recentRain, futureRain := ins.SoilMoisture.RecentPrecipitation, ins.SoilMoisture.ForecastPrecipitation

	switch {
	case recentRain < 5:
		ins.SoilMoisture.Status, ins.SoilMoisture.Risk = "Dry", "high drought stress risk"
	case recentRain < 25:
		ins.SoilMoisture.Status, ins.SoilMoisture.Risk = "Moderate", "monitor moisture"
	case recentRain > 75:
		ins.SoilMoisture.Status, ins.SoilMoisture.Risk = "Saturated", "waterlogging risk"
	default:
		ins.SoilMoisture.Status = "Adequate"
	}

	switch {
	case len(forecast) == 0:
		ins.TemperatureStress = "Unknown"
	case maxTemp >= 40:
		ins.TemperatureStress = "High"
	case maxTemp >= 35:
		ins.TemperatureStress = "Moderate"
	case minTemp <= 4:
		ins.TemperatureStress = "Cold"
	default:
		ins.TemperatureStress = "Low"
	}

	switch ins.SoilMoisture.Status {
	case "Dry":
		ins.IrrigationNeeded = futureRain < 20
	case "Moderate":
		ins.IrrigationNeeded = futureRain < 10
	}
	if ins.IrrigationNeeded {
		ins.IrrigationStatus = "Irrigation recommended in the next few days"
	} else if ins.SoilMoisture.Status == "Saturated" {
		ins.IrrigationStatus = "Hold irrigation and ensure drainage"
	} else {
		ins.IrrigationStatus = "No irrigation needed now"
	}

	ins.PestRisk = "Low"
	if n := float64(len(forecast)); n > 0 {
		humidity, temp := humiditySum/n, tempSum/n
		switch {
		case humidity >= 80 && temp >= 20 && temp <= 32:
			ins.PestRisk = "High"
		case humidity >= 65:
			ins.PestRisk = "Moderate"
		}
	}

	switch {
	case rainyDays >= 3:
		ins.HarvestTiming = "Delay harvest, a wet spell is expected"
	case rainSoon:
		ins.HarvestTiming = "Harvest after the coming rain passes"
	default:
		ins.HarvestTiming = "Favourable window for harvest"
	}

	if ins.IrrigationNeeded {
		ins.Recommendations = append(ins.Recommendations, "Irrigate in the early morning or evening to reduce evaporation losses.")
	}
	if ins.SoilMoisture.Status == "Saturated" {
		ins.Recommendations = append(ins.Recommendations, "Clear field channels to avoid waterlogging and root rot.")
	}
	switch ins.TemperatureStress {
	case "High", "Moderate":
		ins.Recommendations = append(ins.Recommendations, "Protect crops from heat stress with light irrigation and mulching.")
	case "Cold":
		ins.Recommendations = append(ins.Recommendations, "Guard against frost with light irrigation or smoke at night.")
	}
	if ins.PestRisk != "Low" {
		ins.Recommendations = append(ins.Recommendations, "Scout fields for pests and fungal disease; humid conditions favour outbreaks.")
	}
	if futureRain >= 20 {
		ins.Recommendations = append(ins.Recommendations, "Postpone fertilizer and pesticide sprays until the rain passes.")
	}
	if len(ins.Recommendations) == 0 {
		ins.Recommendations = append(ins.Recommendations, "Conditions are stable; continue regular field operations.")
	}
	return ins
}

// Summary renders the report as plain text.
func (r *WeatherReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weather for %s\n", r.Location.String())
	if cur, ok := r.Current(); ok {
		fmt.Fprintf(&b, "Latest (%s): %.1f°C (max %.1f, min %.1f), %s, humidity %.0f%%, wind %.1f km/h %s, rain %.1f mm\n",
			cur.Date, cur.TempAvg, cur.TempMax, cur.TempMin, cur.Condition, cur.Humidity, cur.WindSpeed, cur.WindDirection, cur.Precipitation)
	}
	if len(r.Forecast) > 0 {
		var temp, rain float64
		for _, d := range r.Forecast {
			temp += d.TempAvg
			rain += d.Precipitation
		}
		fmt.Fprintf(&b, "Next %d days: average %.1f°C, total rain %.1f mm\n", len(r.Forecast), temp/float64(len(r.Forecast)), rain)
		for _, d := range r.Forecast[:min(3, len(r.Forecast))] {
			fmt.Fprintf(&b, "  %s: %.1f°C, %s, %.1f mm (%.0f%% chance)\n", d.Date, d.TempAvg, d.Condition, d.Precipitation, d.PrecipitationProbability)
		}
	}
	ins := r.Insights
	fmt.Fprintf(&b, "Soil moisture: %s", ins.SoilMoisture.Status)
	if ins.SoilMoisture.Risk != "" {
		fmt.Fprintf(&b, " (%s)", ins.SoilMoisture.Risk)
	}
	fmt.Fprintf(&b, "\nTemperature stress: %s\nIrrigation: %s\nPest risk: %s\nHarvest: %s\n",
		ins.TemperatureStress, ins.IrrigationStatus, ins.PestRisk, ins.HarvestTiming)
	for _, rec := range ins.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	return strings.TrimRight(b.String(), "\n")
}
