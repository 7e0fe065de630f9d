package sim

import (
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/pthm-cable/evogrid/components"
)

// parallelThreshold is the minimum slot count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	pcg    *rand.PCG
	rng    *rand.Rand
	agents []*components.Agent
	peers  []*components.Agent
}

// reseed points the worker's generator at the stream of one slot and phase,
// so draws do not depend on which worker handles the slot.
func (s *workerScratch) reseed(seed uint64, iteration, slot int, phase uint64) {
	s.pcg.Seed(seed^(uint64(iteration)*0x9e3779b97f4a7c15), uint64(slot)<<2|phase)
}

// chunkFunc processes slots [start, end) with one worker's scratch.
type chunkFunc func(start, end int, scratch *workerScratch)

// workChunk represents a range of slots for a worker to process.
type workChunk struct {
	start, end int
	fn         chunkFunc
}

// workerPool runs step phases over row chunks of the grid.
type workerPool struct {
	scratches  []workerScratch
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		pcg := rand.NewPCG(0, 0)
		scratches[i] = workerScratch{
			pcg:    pcg,
			rng:    rand.New(pcg),
			agents: make([]*components.Agent, 0, 32),
			peers:  make([]*components.Agent, 0, 32),
		}
	}
	return &workerPool{numWorkers: numWorkers, scratches: scratches}
}

// startWorkers launches persistent worker goroutines.
func (p *workerPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *workerPool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker(workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// run applies fn to every slot of an n-slot grid with rows of width cols.
// Chunks always cover whole rows. Returns once every chunk is done.
func (p *workerPool) run(n, cols int, fn chunkFunc) {
	if n == 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers == 1 {
		fn(0, n, &p.scratches[0])
		return
	}

	if !p.running {
		p.startWorkers()
	}

	rows := (n + cols - 1) / cols
	rowsPerChunk := (rows + p.numWorkers - 1) / p.numWorkers
	chunkSize := rowsPerChunk * cols

	chunksDispatched := 0
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
