package types

// AgentState is the lifecycle state of a strategy agent.
type AgentState string

const (
	// AgentStateCreated is the initial state after construction
	AgentStateCreated AgentState = "CREATED"
	// AgentStateTraining is entered while Train is running
	AgentStateTraining AgentState = "TRAINING"
	// AgentStateActive permits Analyze calls
	AgentStateActive AgentState = "ACTIVE"
	// AgentStateStopped is entered via Stop and can be restarted
	AgentStateStopped AgentState = "STOPPED"
	// AgentStateFailed is terminal; the agent must be reconstructed
	AgentStateFailed AgentState = "FAILED"
)
