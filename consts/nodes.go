package consts

// Workflow node names. These are the graph node identifiers and also the
// agent labels used in progress events and reports.
const (
	AgentAnalyst     = "analyst" // researcher + strategist branch
	AgentQuant       = "quant"
	AgentChartist    = "chartist"
	AgentQualityGate = "quality_gate"
	AgentRetry       = "retry_research"
	AgentRiskManager = "risk_manager"
)

// Branch agents fanned out from START, in fan-out order.
var BranchAgents = []string{AgentAnalyst, AgentQuant, AgentChartist}
