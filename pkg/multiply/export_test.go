package multiply

// Write hooks let tests observe or fail individual cell stores.

func (s *Sequential) SetWriteHook(fn func(i, j int) error) { s.onWrite = fn }

func (m *ForkJoin) SetWriteHook(fn func(i, j int) error) { m.onWrite = fn }

func (m *WorkerPool) SetWriteHook(fn func(i, j int) error) { m.onWrite = fn }
