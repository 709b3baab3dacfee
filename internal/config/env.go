package config

import (
	"os"
	"strconv"
	"strings"
)

// Overlay applies environment overrides on top of a parsed config.
//
// The job lists are comma-separated strings (legacy .env layout); entries
// are trimmed and empty entries dropped. Numeric overrides are ignored when
// unparsable so a bad .env cannot take the job down.
func Overlay(cfg *Config) {
	if cfg == nil {
		return
	}
	if v, ok := lookupList("DATES_TO_CHECK"); ok {
		cfg.Job.Dates = v
	}
	if v, ok := lookupList("TRAIN_CATEGORIES"); ok {
		cfg.Job.Categories = v
	}
	if v, ok := lookupList("DENOMINATIONS"); ok {
		cfg.Job.Denominations = v
	}
	if v, ok := lookupList("EMAIL_RECIPIENTS"); ok {
		cfg.Job.Recipients = v
	}
	if v, ok := lookupInt("DEPARTURE_LOCATION_ID"); ok {
		cfg.Job.DepartureLocationID = v
	}
	if v, ok := lookupInt("ARRIVAL_LOCATION_ID"); ok {
		cfg.Job.ArrivalLocationID = v
	}
	if v := strings.TrimSpace(os.Getenv("TRENITALIA_API_URL")); v != "" {
		cfg.Trenitalia.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("EMAIL_USER")); v != "" {
		cfg.Mail.Username = v
	}
	if v := strings.TrimSpace(os.Getenv("EMAIL_PASS")); v != "" {
		cfg.Mail.Password = v
	}

	cfg.Job.Dates = SplitList(strings.Join(cfg.Job.Dates, ","))
	cfg.Job.Categories = SplitList(strings.Join(cfg.Job.Categories, ","))
	cfg.Job.Denominations = SplitList(strings.Join(cfg.Job.Denominations, ","))
	cfg.Job.Recipients = SplitList(strings.Join(cfg.Job.Recipients, ","))
}

// SplitList splits a comma-separated string, trimming whitespace and
// dropping empty entries.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func lookupList(key string) ([]string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, false
	}
	return SplitList(v), true
}

func lookupInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}
