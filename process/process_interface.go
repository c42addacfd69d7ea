package process

// Process is the narrow capability the autosplitter needs from an attached
// process. Every read can fail at any time because the target runs
// asynchronously to us.
type Process interface {
	// GetPID returns the process ID
	GetPID() ProcessID

	// Name returns the name the process was attached by
	Name() string

	// IsOpen reports whether the process is still alive
	IsOpen() bool

	// MainModuleBase returns the load address of the main executable module
	MainModuleBase() (ProcessMemoryAddress, error)

	// MainModuleSize returns the mapped size of the main executable module
	MainModuleSize() (ProcessMemorySize, error)

	// ReadMemory reads memory from the process at the specified address
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// Close closes the process and releases resources
	Close() error
}

// Attacher opens a process by its executable name.
type Attacher interface {
	Attach(name string) (Process, error)
}

// AttacherFunc adapts a function to the Attacher interface
type AttacherFunc func(name string) (Process, error)

func (f AttacherFunc) Attach(name string) (Process, error) {
	return f(name)
}
