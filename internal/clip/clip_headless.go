package clip

// headlessBackend is a no-op clipboard backend for environments without a
// display server (headless Linux servers, containers, etc.).
// Its change counter never moves and writes are silently discarded; the
// daemon still serves its history normally.
type headlessBackend struct{}

func (b *headlessBackend) Name() string              { return "headless (no-op)" }
func (b *headlessBackend) ChangeCount() uint64       { return 0 }
func (b *headlessBackend) ReadText() (string, error) { return "", nil }
func (b *headlessBackend) WriteText(_ string) error  { return nil }
func (b *headlessBackend) Close()                    {}
