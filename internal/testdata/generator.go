package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jask/qsolog/internal/logbook"
)

var (
	prefixes = []string{"G", "M", "2E", "EI", "F", "DL", "K", "W", "VE", "JA", "VK", "ZL"}
	suffixes = []string{"ABC", "XYZ", "QRP", "DX", "RTY", "KLM", "OPQ", "FGH"}
	bands    = []struct {
		band string
		freq float64
	}{
		{"80m", 3.650}, {"40m", 7.100}, {"20m", 14.205}, {"17m", 18.130}, {"15m", 21.250}, {"10m", 28.500}, {"2m", 144.300},
	}
	modes = []string{"SSB", "CW", "FM", "FT8", "RTTY"}
)

// Seed creates a log named name holding n generated contacts and returns its
// tab position. The same seed always yields the same contacts.
func Seed(ctx context.Context, book *logbook.Logbook, name string, n int, seed int64) (int, error) {
	tab, err := book.CreateLog(ctx, name)
	if err != nil {
		return -1, err
	}
	rnd := rand.New(rand.NewSource(seed))
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		if _, err := book.AddRecord(ctx, tab, Contact(rnd, start.Add(time.Duration(i)*7*time.Minute))); err != nil {
			return tab, err
		}
	}
	return tab, nil
}

// Contact returns one plausible contact made at t. Every value passes field
// validation.
func Contact(rnd *rand.Rand, t time.Time) map[string]string {
	b := bands[rnd.Intn(len(bands))]
	mode := modes[rnd.Intn(len(modes))]
	rst := "59"
	if mode == "CW" || mode == "RTTY" {
		rst = "599"
	}
	return map[string]string{
		"CALL":     fmt.Sprintf("%s%d%s", prefixes[rnd.Intn(len(prefixes))], rnd.Intn(10), suffixes[rnd.Intn(len(suffixes))]),
		"QSO_DATE": t.Format("20060102"),
		"TIME_ON":  t.Format("1504"),
		"FREQ":     fmt.Sprintf("%.3f", b.freq+float64(rnd.Intn(50))/1000),
		"BAND":     b.band,
		"MODE":     mode,
		"RST_SENT": rst,
		"RST_RCVD": rst,
	}
}
