package flash

// MemoryDevice keeps the whole flash in RAM. It enforces the same program
// rules as the hardware and counts erase and program operations per page.
// It does not provide any concurrency guarantee.
type MemoryDevice struct {
	geometry
	pages      [][]byte
	erases     []int
	programs   []int
	programmed int
}

func NewMemoryDevice(pageSize, wordSize, pageCount int) (*MemoryDevice, error) {
	g, err := newGeometry(pageSize, wordSize, pageCount)
	if err != nil {
		return nil, err
	}
	d := &MemoryDevice{
		geometry: g,
		pages:    make([][]byte, pageCount),
		erases:   make([]int, pageCount),
		programs: make([]int, pageCount),
	}
	for i := range d.pages {
		d.pages[i] = make([]byte, pageSize)
		fill(d.pages[i], Erased)
	}
	return d, nil
}

func (d *MemoryDevice) ReadPage(page int) ([]byte, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	out := make([]byte, d.pageSize)
	copy(out, d.pages[page])
	return out, nil
}

func (d *MemoryDevice) ErasePage(page int) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	fill(d.pages[page], Erased)
	d.erases[page]++
	return nil
}

func (d *MemoryDevice) Program(page, offset int, data []byte) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	if err := d.checkProgram(d.pages[page], offset, data); err != nil {
		return err
	}
	copy(d.pages[page][offset:], data)
	d.programs[page]++
	d.programmed += len(data)
	return nil
}

// EraseCount returns how many times page was erased.
func (d *MemoryDevice) EraseCount(page int) int {
	return d.erases[page]
}

func (d *MemoryDevice) TotalErases() int {
	total := 0
	for _, n := range d.erases {
		total += n
	}
	return total
}

func (d *MemoryDevice) ProgramCount(page int) int {
	return d.programs[page]
}

// ProgrammedBytes returns the number of bytes programmed so far,
// footers included.
func (d *MemoryDevice) ProgrammedBytes() int {
	return d.programmed
}

// Image returns a copy of the whole flash contents.
func (d *MemoryDevice) Image() []byte {
	out := make([]byte, 0, d.pageSize*d.pageCount)
	for _, p := range d.pages {
		out = append(out, p...)
	}
	return out
}

// Load replaces the flash contents with image, which must cover the whole
// device. Erase counters are left untouched.
func (d *MemoryDevice) Load(image []byte) error {
	if len(image) != d.pageSize*d.pageCount {
		return ErrOutOfRange
	}
	for i := range d.pages {
		copy(d.pages[i], image[i*d.pageSize:(i+1)*d.pageSize])
	}
	return nil
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
