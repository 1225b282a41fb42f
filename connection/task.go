package connection

import (
	"github.com/oradrv/tnscore"
	"github.com/oradrv/tnscore/statement"
)

// TaskKind tags the variant carried by a Task.
type TaskKind int

const (
	TaskStatement TaskKind = iota
	TaskPing
	TaskCommit
	TaskRollback
	TaskLobOp
)

// Status is the empty acknowledgment value a ping/commit/rollback/LOB-op
// promise succeeds with; the transaction-status byte itself, if any, is an
// outer-layer concern (column/value decoding is out of scope here).
type Status struct{}

// LobOp is an opaque LOB operation descriptor; the core only sequences it,
// it never interprets the payload.
type LobOp struct {
	Descriptor any
}

// Task is the tagged variant enqueued on a session: Statement(ctx),
// Ping(promise), Commit(promise), Rollback(promise), LobOp(ctx).
type Task struct {
	Kind TaskKind
	ID   tnscore.TaskID

	Statement *statement.Context
	LobOp     *LobOp

	Promise *tnscore.Promise[Status]
}

// NewStatementTask builds a Statement task.
func NewStatementTask(ctx *statement.Context) Task {
	return Task{Kind: TaskStatement, ID: tnscore.NewTaskID(), Statement: ctx}
}

// NewPingTask builds a Ping task.
func NewPingTask() Task {
	return Task{Kind: TaskPing, ID: tnscore.NewTaskID(), Promise: tnscore.NewPromise[Status]()}
}

// NewCommitTask builds a Commit task.
func NewCommitTask() Task {
	return Task{Kind: TaskCommit, ID: tnscore.NewTaskID(), Promise: tnscore.NewPromise[Status]()}
}

// NewRollbackTask builds a Rollback task.
func NewRollbackTask() Task {
	return Task{Kind: TaskRollback, ID: tnscore.NewTaskID(), Promise: tnscore.NewPromise[Status]()}
}

// NewLobOpTask builds a LobOp task.
func NewLobOpTask(op *LobOp) Task {
	return Task{Kind: TaskLobOp, ID: tnscore.NewTaskID(), LobOp: op, Promise: tnscore.NewPromise[Status]()}
}

// fail fails whatever promise the task carries with err. Statement tasks
// carry their own promise on Statement.Promise.
func (t Task) fail(err error) {
	switch t.Kind {
	case TaskStatement:
		if t.Statement != nil && t.Statement.Promise != nil {
			t.Statement.Promise.Fail(err)
		}
	default:
		if t.Promise != nil {
			t.Promise.Fail(err)
		}
	}
}
