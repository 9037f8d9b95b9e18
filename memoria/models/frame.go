package models

// Frame es un marco de memoria física en uso. El dueño se guarda como Pid y se resuelve a través de la
// tabla de procesos: el marco no es dueño del proceso ni de su espacio de direcciones.
type Frame struct {
	Address PhysicalAddress `json:"address"`
	Page    VirtualAddress  `json:"page"`
	Owner   Pid             `json:"owner"`
	Origin  *Origin         `json:"-"` // nil: página anónima, de ceros o traída de swap
	Pins    int             `json:"pins"`
}

// Pinned indica si el marco no puede ser elegido como víctima.
func (f *Frame) Pinned() bool {
	return f.Pins > 0
}
