package models

// Estructuras que se reciben y se envían por la API HTTP de memoria.

type PIDRequest struct {
	PID Pid `json:"pid"`
}

type EndProcessRequest struct {
	PID    Pid `json:"pid"`
	Status int `json:"status"`
}

type FaultRequest struct {
	Pid          Pid            `json:"pid"`
	Address      VirtualAddress `json:"address"`
	Write        bool           `json:"write"`
	User         bool           `json:"user"`
	StackPointer VirtualAddress `json:"stack_pointer"`
	NotPresent   bool           `json:"not_present"`
}

type StackPointerRequest struct {
	PID          Pid            `json:"pid"`
	StackPointer VirtualAddress `json:"stack_pointer"`
}

type ReadRequest struct {
	PID     Pid            `json:"pid"`
	Address VirtualAddress `json:"address"`
	Size    int            `json:"size"`
}

type ReadResponse struct {
	Data []byte `json:"data"`
}

type WriteRequest struct {
	PID     Pid            `json:"pid"`
	Address VirtualAddress `json:"address"`
	Data    []byte         `json:"data"`
}

type SegmentRequest struct {
	PID       Pid            `json:"pid"`
	Path      string         `json:"path"`
	Offset    int64          `json:"offset"`
	Address   VirtualAddress `json:"address"`
	ReadBytes int            `json:"read_bytes"`
	ZeroBytes int            `json:"zero_bytes"`
	Writable  bool           `json:"writable"`
}

type MmapRequest struct {
	PID     Pid            `json:"pid"`
	Path    string         `json:"path"`
	Address VirtualAddress `json:"address"`
}

type MmapResponse struct {
	MapID MapID `json:"mapid"`
}

type MunmapRequest struct {
	PID   Pid   `json:"pid"`
	MapID MapID `json:"mapid"`
}

type DumpResponse struct {
	Path string `json:"path"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
