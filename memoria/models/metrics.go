package models

import "sync/atomic"

// Metrics acumula las estadísticas de memoria virtual de un proceso. Se actualiza desde cualquier hilo
// (el desalojo corre en el hilo que necesita el marco), por eso los contadores son atómicos.
type Metrics struct {
	PageFaults     atomic.Int64
	SwapsOut       atomic.Int64
	SwapsIn        atomic.Int64
	FileWritebacks atomic.Int64
	FileReads      atomic.Int64
	Discards       atomic.Int64
	Evictions      atomic.Int64
	Reads          atomic.Int64
	Writes         atomic.Int64
}

type MetricsSnapshot struct {
	PageFaults     int64 `json:"page_faults"`
	SwapsOut       int64 `json:"swaps_out"`
	SwapsIn        int64 `json:"swaps_in"`
	FileWritebacks int64 `json:"file_writebacks"`
	FileReads      int64 `json:"file_reads"`
	Discards       int64 `json:"discards"`
	Evictions      int64 `json:"evictions"`
	Reads          int64 `json:"reads"`
	Writes         int64 `json:"writes"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		PageFaults:     m.PageFaults.Load(),
		SwapsOut:       m.SwapsOut.Load(),
		SwapsIn:        m.SwapsIn.Load(),
		FileWritebacks: m.FileWritebacks.Load(),
		FileReads:      m.FileReads.Load(),
		Discards:       m.Discards.Load(),
		Evictions:      m.Evictions.Load(),
		Reads:          m.Reads.Load(),
		Writes:         m.Writes.Load(),
	}
}
