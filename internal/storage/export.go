package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/san-kum/brinksim/internal/dynamo"
)

// Summary is the JSON view of a catalogued run.
type Summary struct {
	ID          string             `json:"id"`
	Variant     string             `json:"variant"`
	Created     time.Time          `json:"created"`
	Particles   int                `json:"particles"`
	TEnd        float64            `json:"t_end"`
	Seed        int64              `json:"seed"`
	Integrator  string             `json:"integrator"`
	File        string             `json:"file"`
	Samples     int                `json:"samples"`
	Steps       int                `json:"steps"`
	Rejected    int                `json:"rejected"`
	Evaluations int                `json:"evaluations"`
	Metrics     map[string]float64 `json:"metrics"`
}

func WriteJSON(w io.Writer, rec Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Summary{
		ID:          rec.ID,
		Variant:     rec.Variant,
		Created:     rec.Created,
		Particles:   rec.Particles,
		TEnd:        rec.TEnd,
		Seed:        rec.Seed,
		Integrator:  rec.Integrator,
		File:        rec.File,
		Samples:     rec.Samples,
		Steps:       rec.Steps,
		Rejected:    rec.Rejected,
		Evaluations: rec.Evaluations,
		Metrics:     rec.Metrics,
	})
}

func WriteCSV(w io.Writer, times []float64, states []dynamo.State) error {
	cw := csv.NewWriter(w)

	if len(states) == 0 {
		cw.Flush()
		return cw.Error()
	}

	header := []string{"time"}
	for i := 0; i < states[0].Particles(); i++ {
		header = append(header, fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i), fmt.Sprintf("z%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for k, st := range states {
		row := make([]string, 0, len(st)+1)
		row = append(row, strconv.FormatFloat(times[k], 'g', -1, 64))
		for _, v := range st {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
