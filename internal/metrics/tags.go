package metrics

import "fmt"

// Tag creates a formatted DataDog tag string in "key:value" format.
func Tag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

func EndpointTag(endpoint string) string {
	return Tag("endpoint", endpoint)
}

func StrategyTag(strategy string) string {
	return Tag("strategy", strategy)
}

func PriorityTag(priority string) string {
	return Tag("priority", priority)
}

// OutcomeTag tags a finished request with "success" or an error kind.
func OutcomeTag(outcome string) string {
	return Tag("outcome", outcome)
}

func CircuitStateTag(state string) string {
	return Tag("circuit_state", state)
}
