package sim

// HookPos names a position at which hooks are invoked.
type HookPos struct {
	Name string
}

// HookCtx is what a hook receives when it is invoked.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable is an object that accepts hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)
}

// Hook positions of the engine. Item is the cycle number.
var (
	HookPosBeforeTick = &HookPos{Name: "BeforeTick"}
	HookPosAfterTick  = &HookPos{Name: "AfterTick"}
)

// Hook positions of a System.
var (
	// HookPosTransactionStart fires when a master starts driving a
	// transaction. Item is the *Transaction.
	HookPosTransactionStart = &HookPos{Name: "TransactionStart"}

	// HookPosTransactionEnd fires when a transaction completes or is
	// aborted by reset. Item is the *Transaction.
	HookPosTransactionEnd = &HookPos{Name: "TransactionEnd"}

	// HookPosPhaseChange fires when the arbiter changes phase. Item is a
	// PhaseChange.
	HookPosPhaseChange = &HookPos{Name: "PhaseChange"}

	// HookPosCycle fires at the end of every simulated cycle. Item is a
	// CycleRecord.
	HookPosCycle = &HookPos{Name: "Cycle"}
)

// Hook is a short piece of program invoked by a hookable object.
type Hook interface {
	// Func determines what to do when the hook is invoked.
	Func(ctx HookCtx)
}

// HookableBase implements Hookable for the types that embed it.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns the number of registered hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
