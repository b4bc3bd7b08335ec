// Package cotask provides a cooperative multitasking scheduler with
// interrupt-safe queues and shares for embedded-style control programs.
//
// Tasks are resumable computations written as step functions which run from
// one suspension point to the next and return. The scheduler resumes them
// either by priority (the highest-priority ready task runs first, equal
// priorities rotate round-robin) or in simple round-robin passes. There is
// no preemption: a step which does not return keeps the processor, so steps
// must be short and bounded.
//
// # Quick Start
//
// Create tasks, append them to a list, and run the scheduler:
//
//	motor := cotask.NewTaskFunc(motorStep, cotask.TaskConfig{
//		Name:     "Motor",
//		Priority: 4,
//		Period:   10 * time.Millisecond,
//		Profile:  true,
//	})
//
//	tasks := cotask.NewTaskList()
//	tasks.Append(motor)
//	tasks.Run(ctx, cotask.AlgorithmPriority)
//
// # Inter-task Communication
//
// Tasks and interrupt-style callbacks exchange data through Queues (ring
// buffers with FIFO ordering) and Shares (single values, latest write wins):
//
//	samples, _ := cotask.NewQueue[int16](cotask.QueueConfig{
//		Size:          64,
//		ThreadProtect: true,
//		Name:          "Samples",
//	})
//	samples.TryPut(reading) // from a producer goroutine: never blocks
//	value := samples.Get()  // from a task: blocks until data arrives
//
// The PutISR and GetISR variants skip the critical section entirely and
// exist for bare-metal ports where interrupt handlers preempt the single
// scheduling context. On hosted targets a goroutine standing in for an
// interrupt must use TryPut and TryGet instead.
//
// Never communicate between tasks through unprotected package-level
// variables; a queue or share makes the data flow visible and safe.
//
// # Diagnostics
//
// Tasks optionally profile their execution time and scheduling lateness and
// trace their state transitions. Printing a TaskList yields a table of every
// task with its aggregates; a Registry of queues and shares prints the same
// way for communication objects.
//
// For more details, see https://github.com/spluttflob/cotask-go
package cotask
