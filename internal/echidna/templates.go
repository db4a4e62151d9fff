package echidna

import (
	"fmt"
	"sort"
	"strings"
)

// PropertyType names a style of Echidna property
type PropertyType string

const (
	PropertyBoolean      PropertyType = "boolean"
	PropertyAssertion    PropertyType = "assertion"
	PropertyDappTest     PropertyType = "dapptest"
	PropertyOptimization PropertyType = "optimization"
)

// AssertionProperty is one named condition for an assertion contract
type AssertionProperty struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
}

// PropertyTypes returns the supported property types, sorted
func PropertyTypes() []string {
	types := []string{
		string(PropertyBoolean),
		string(PropertyAssertion),
		string(PropertyDappTest),
		string(PropertyOptimization),
	}
	sort.Strings(types)
	return types
}

// PropertyTemplate returns skeleton Solidity for the given property style
func PropertyTemplate(contractName string, propertyType PropertyType) (string, error) {
	switch propertyType {
	case PropertyBoolean:
		return fmt.Sprintf(`contract Test%s is %s {
    function echidna_property_description() public returns (bool) {
        // Property logic here
        return true; // Property holds
    }
}`, contractName, contractName), nil

	case PropertyAssertion:
		return fmt.Sprintf(`contract Test%s is %s {
    function check_invariant() public {
        // Test logic here
        assert(true); // Property holds
    }
}`, contractName, contractName), nil

	case PropertyDappTest:
		return fmt.Sprintf(`contract Test%s is %s {
    function testProperty(uint256 param1) public {
        // Test logic with parameters
        // Will fail if it reverts (except with "FOUNDRY::ASSUME" reason)
    }
}`, contractName, contractName), nil

	case PropertyOptimization:
		return fmt.Sprintf(`contract Test%s is %s {
    function echidna_opt_function() public view returns (int256) {
        // Return a value to maximize
        return 0;
    }
}`, contractName, contractName), nil

	default:
		return "", fmt.Errorf("unknown property type: %s. Available types: %s",
			propertyType, strings.Join(PropertyTypes(), ", "))
	}
}

// PropertyUsageNotes returns usage guidance for a property style
func PropertyUsageNotes(propertyType PropertyType) string {
	switch propertyType {
	case PropertyBoolean:
		return `- Function name must start with 'echidna_'
- Must return a boolean (true if property holds)
- Side effects are reverted after execution
- Will fail if it returns false or reverts`

	case PropertyAssertion:
		return `- Use assert() to check conditions
- Will fail if assert fails
- Can also emit AssertionFailed event to indicate failure
- Side effects are preserved`

	case PropertyDappTest:
		return `- Requires one or more arguments
- Will fail if execution reverts
- Can use "FOUNDRY::ASSUME" revert reason to skip invalid inputs
- Typically used with stateless testing (--seq-len 1)`

	case PropertyOptimization:
		return `- Function name must start with 'echidna_opt_'
- Must return an int256 value
- Echidna will try to maximize this value
- Run with --test-mode optimization`

	default:
		return ""
	}
}

// AssertionContract generates a test contract that emits AssertionFailed
// whenever one of the supplied conditions does not hold
func AssertionContract(contractToTest string, properties []AssertionProperty) (string, error) {
	if contractToTest == "" {
		return "", fmt.Errorf("contract name is required")
	}
	if len(properties) == 0 {
		return "", fmt.Errorf("at least one property is required")
	}

	var b strings.Builder

	fmt.Fprintf(&b, `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.0;

import "./%s.sol";

contract Test%s is %s {
    // Define event that Echidna will detect
    event AssertionFailed(string message);

`, contractToTest, contractToTest, contractToTest)

	for _, prop := range properties {
		if prop.Name == "" || prop.Condition == "" {
			return "", fmt.Errorf("each property needs a name and a condition")
		}
		fmt.Fprintf(&b, `    function %s() public {
        if (!(%s)) {
            emit AssertionFailed("%s failed");
        }
    }

`, prop.Name, prop.Condition, prop.Name)
	}

	b.WriteString("}\n")

	return b.String(), nil
}
