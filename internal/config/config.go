package config

import (
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	// SubjectsPath points at an optional TOML file declaring the default
	// subject registry; when empty, subjects are detected per upload.
	SubjectsPath string

	MaxUploadMB int64

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           addr,
		SubjectsPath:       os.Getenv("SUBJECTS_PATH"),
		MaxUploadMB:        envInt64("MAX_UPLOAD_MB", 32),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://reports.scorelens.dev"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
