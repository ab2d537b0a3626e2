// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package server

type Worker struct {
	WorkerPool chan chan *ApiContext
	JobChannel chan *ApiContext
	quit       chan bool
}

func NewWorker(workerPool chan chan *ApiContext) Worker {
	return Worker{
		WorkerPool: workerPool,
		JobChannel: make(chan *ApiContext),
		quit:       make(chan bool),
	}
}

func (w Worker) Start() {
	go func() {
		for {
			// register the current worker into the worker queue.
			w.WorkerPool <- w.JobChannel

			select {
			case req := <-w.JobChannel:
				// skip requests whose deadline passed while queued
				select {
				case <-req.Context.Done():
					req.handleError(req.Context.Err())
				default:
					req.serve()
				}
				req.sendResponse()
				req.done <- nil

			case <-w.quit:
				return
			}
		}
	}()
}

// Stop signals the worker to stop listening for work requests.
func (w Worker) Stop() {
	go func() {
		w.quit <- true
	}()
}

// Dispatcher feeds queued API calls to a fixed pool of workers.
type Dispatcher struct {
	pool     chan chan *ApiContext
	queue    chan *ApiContext
	workers  []Worker
	quit     chan struct{}
	maxQueue int
}

func NewDispatcher(maxWorkers int, maxQueue int) *Dispatcher {
	return &Dispatcher{
		pool:     make(chan chan *ApiContext, maxWorkers),
		queue:    make(chan *ApiContext, maxQueue),
		workers:  make([]Worker, maxWorkers),
		quit:     make(chan struct{}),
		maxQueue: maxQueue,
	}
}

func (d *Dispatcher) Run() {
	for i := range d.workers {
		d.workers[i] = NewWorker(d.pool)
		d.workers[i].Start()
	}
	go d.dispatch()
}

// Submit queues a call and reports false when the queue is full.
func (d *Dispatcher) Submit(api *ApiContext) bool {
	select {
	case d.queue <- api:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) Stop() {
	close(d.quit)
	for _, w := range d.workers {
		w.Stop()
	}
}

func (d *Dispatcher) dispatch() {
	for {
		select {
		case api := <-d.queue:
			// will block until a worker is idle
			select {
			case workerChannel := <-d.pool:
				workerChannel <- api
			case <-d.quit:
				api.handleError(EServiceUnavailable(EC_SERVER, "shutting down", nil))
				api.sendResponse()
				api.done <- nil
				return
			}
		case <-d.quit:
			return
		}
	}
}
