package fsm

import (
	"sync"
)

// FSM keeps the conversation state of every user in memory.
type FSM struct {
	states map[int64]State
	mu     *sync.RWMutex
}

type State struct {
	Step ConversationStep
	Data StateData
}

func NewFSM() *FSM {
	return &FSM{
		states: make(map[int64]State),
		mu:     &sync.RWMutex{},
	}
}

func (f *FSM) Get(userID int64) State {
	f.mu.RLock()
	defer f.mu.RUnlock()

	state, ok := f.states[userID]
	if !ok {
		return State{Step: StepIdle, Data: &IdleData{}}
	}
	return state
}

func (f *FSM) Set(userID int64, step ConversationStep, data StateData) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if data == nil {
		data = f.states[userID].Data
	}
	if data == nil {
		data = &IdleData{}
	}
	f.states[userID] = State{Step: step, Data: data}
}

func (f *FSM) Reset(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.states, userID)
}
