package spillcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// Stores call them from their I/O paths (the durable worker included).
type Hooks interface {
	// A unit of work failed inside a store (storage fault, bad payload, panic).
	// The failure was contained; the caller got a default result.
	WorkerFault(op string, err error)

	// An entry was deleted by the store on read.
	// reason ∈ {"corrupt", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// An operation reached a store after Close and was dropped.
	StoreClosed(op string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) WorkerFault(string, error)  {}
func (NopHooks) SelfHeal(string, string)    {}
func (NopHooks) ProviderSetRejected(string) {}
func (NopHooks) StoreClosed(string)         {}
