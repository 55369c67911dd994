// Package inmemdb keeps the repositories in process memory. It backs tests and the "memory" database engine.
package inmemdb

import (
	"sync"

	"github.com/trezcool/maintenance/core/identity"
	"github.com/trezcool/maintenance/core/machine"
	"github.com/trezcool/maintenance/core/material"
	"github.com/trezcool/maintenance/core/task"
	"github.com/trezcool/maintenance/core/user"
)

type (
	DB struct {
		user       *userTable
		credential *credentialTable
		task       *taskTable
		material   *materialTable
		machine    *machineTables
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	credentialTable struct {
		sync.RWMutex
		table map[string]*identity.Credential // {principalID: credential}
	}

	taskTable struct {
		sync.RWMutex
		table map[string]*task.Task
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*material.Request
	}

	// machineTables share one lock: readings & logs are recorded against a machine lookup.
	machineTables struct {
		sync.RWMutex
		machines map[string]*machine.Machine
		readings map[string]*machine.Reading
		logs     map[string]*machine.ServiceLog
	}
)

func newMachineTables() *machineTables {
	return &machineTables{
		machines: make(map[string]*machine.Machine),
		readings: make(map[string]*machine.Reading),
		logs:     make(map[string]*machine.ServiceLog),
	}
}

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		credential: &credentialTable{table: make(map[string]*identity.Credential)},
		task:       &taskTable{table: make(map[string]*task.Task)},
		material:   &materialTable{table: make(map[string]*material.Request)},
		machine:    newMachineTables(),
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.credential.Lock()
	db.credential.table = make(map[string]*identity.Credential)
	db.credential.Unlock()

	db.task.Lock()
	db.task.table = make(map[string]*task.Task)
	db.task.Unlock()

	db.material.Lock()
	db.material.table = make(map[string]*material.Request)
	db.material.Unlock()

	fresh := newMachineTables()
	db.machine.Lock()
	db.machine.machines, db.machine.readings, db.machine.logs = fresh.machines, fresh.readings, fresh.logs
	db.machine.Unlock()
}
