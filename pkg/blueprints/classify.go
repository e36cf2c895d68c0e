package blueprints

import (
	"strings"
)

// typeMarkers maps engine node-type prefixes to blueprint categories. Order
// matters: the first marker present in the content wins, so a graph mixing
// behavior-tree and material nodes still classifies as behavior_tree.
var typeMarkers = []struct {
	markers []string
	t       BlueprintType
}{
	{[]string{"BehaviorTreeGraphNode_", "BehaviorTreeDecoratorGraphNode_"}, TypeBehaviorTree},
	{[]string{"MaterialGraphNode"}, TypeMaterial},
	{[]string{"AnimGraphNode_"}, TypeAnimation},
	{[]string{"/Script/MetasoundEditor"}, TypeMetasound},
	{[]string{"/Script/NiagaraEditor"}, TypeNiagara},
}

// FindBlueprintType classifies submitted content by scanning for known
// engine marker substrings, falling back to the generic blueprint category.
func FindBlueprintType(content string) BlueprintType {
	for _, entry := range typeMarkers {
		for _, marker := range entry.markers {
			if strings.Contains(content, marker) {
				return entry.t
			}
		}
	}
	return TypeBlueprint
}

// IsValidBlueprint reports whether content looks like a pasted blueprint
// export: lower-cased, it must start with the literal token "begin" at
// offset 0, with no leading whitespace tolerated.
func IsValidBlueprint(content string) bool {
	return strings.HasPrefix(strings.ToLower(content), "begin")
}
