package interpreter

import (
	"github.com/sashabaranov/go-openai"
)

// Function describes one intent the model may select, expressed as an
// OpenAI function definition.
type Function struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// DefaultFunctions returns the built-in intent catalog.
func DefaultFunctions() []Function {
	return []Function{
		{
			Name:        "list_employees",
			Description: "List all employees, optionally filtered by department",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"department": map[string]any{
						"type":        "string",
						"description": "Department name to filter by",
					},
				},
			},
		},
		{
			Name:        "get_employee_manager",
			Description: "Look up the manager of a given employee",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_name": map[string]any{
						"type":        "string",
						"description": "Full name of the employee",
					},
				},
				"required": []string{"employee_name"},
			},
		},
		{
			Name:        "update_phone_number",
			Description: "Update the phone number on an employee record",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_name": map[string]any{
						"type":        "string",
						"description": "Full name of the employee",
					},
					"phone_number": map[string]any{
						"type":        "string",
						"description": "New phone number",
					},
				},
				"required": []string{"employee_name", "phone_number"},
			},
		},
		{
			Name:        "create_employee",
			Description: "Create a new employee record",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_name": map[string]any{
						"type":        "string",
						"description": "Full name of the new employee",
					},
					"department": map[string]any{
						"type":        "string",
						"description": "Department the employee joins",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "Job title",
					},
				},
				"required": []string{"employee_name"},
			},
		},
		{
			Name:        "get_department_info",
			Description: "Get details about a department, such as headcount and manager",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"department": map[string]any{
						"type":        "string",
						"description": "Department name",
					},
				},
				"required": []string{"department"},
			},
		},
	}
}

func toOpenAITools(funcs []Function) []openai.Tool {
	tools := make([]openai.Tool, len(funcs))
	for i, f := range funcs {
		tools[i] = openai.Tool{
			Type: "function",
			Function: &openai.FunctionDefinition{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  f.Parameters,
			},
		}
	}
	return tools
}
