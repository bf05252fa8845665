// Copyright 2021 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/dig"
)

type Task interface {
	Name() string
	Run(ctx context.Context)
}

type TaskManager struct {
	ctx   context.Context
	mu    sync.Mutex
	tasks map[string]Task
	// running holds the names of tasks that are currently running, so a slow run is never
	// overlapped by the next tick.
	running map[string]bool

	logger *slog.Logger
}

type TaskManagerParams struct {
	dig.In

	Ctx    context.Context
	Tasks  []Task `group:"tasks"`
	Logger *slog.Logger
}

func NewTaskManager(p TaskManagerParams) (*TaskManager, error) {
	tm := &TaskManager{
		ctx:     p.Ctx,
		tasks:   map[string]Task{},
		running: map[string]bool{},
		logger:  p.Logger,
	}
	for _, t := range p.Tasks {
		if err := tm.AddTask(t); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

func (tm *TaskManager) AddTask(t Task) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	name := t.Name()
	if _, exists := tm.tasks[name]; exists {
		return fmt.Errorf("a task with name=%s already exists", name)
	}
	tm.tasks[name] = t
	return nil
}

// Names returns the names of all added tasks in lexical order.
func (tm *TaskManager) Names() []string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return slices.Sorted(maps.Keys(tm.tasks))
}

// RunAll runs every task once and waits for them to finish.
func (tm *TaskManager) RunAll() {
	tm.mu.Lock()
	tasks := make([]Task, 0, len(tm.tasks))
	for _, t := range tm.tasks {
		tasks = append(tasks, t)
	}
	tm.mu.Unlock()
	for _, t := range tasks {
		tm.run(t)
	}
}

// Schedule runs every task each interval until the TaskManager's context is done.
func (tm *TaskManager) Schedule(interval time.Duration) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for name, t := range tm.tasks {
		tm.logger.Info("scheduling task",
			slog.String("taskName", name),
			slog.Duration("interval", interval))
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-tm.ctx.Done():
					tm.logger.Debug("context cancelled for task", slog.String("taskName", name))
					return
				case <-ticker.C:
					tm.run(t)
				}
			}
		}()
	}
}

func (tm *TaskManager) run(t Task) {
	name := t.Name()
	tm.mu.Lock()
	if tm.running[name] {
		tm.mu.Unlock()
		tm.logger.Info("not running task because it is already running", slog.String("taskName", name))
		return
	}
	tm.running[name] = true
	tm.mu.Unlock()

	tm.logger.Debug("running task", slog.String("taskName", name))
	startTime := time.Now()
	t.Run(tm.ctx)
	tm.logger.Debug("task finished",
		slog.String("taskName", name),
		slog.Duration("duration", time.Since(startTime)))

	tm.mu.Lock()
	delete(tm.running, name)
	tm.mu.Unlock()
}
