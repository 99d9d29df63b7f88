package planner

// taskGraphSchema is the JSON schema the planner's model call must
// conform to, per spec §4.I: `{tasks: [{id, title, depends_on[],
// assigned_agent?, input}]}`.
const taskGraphSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["tasks"],
  "properties": {
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "depends_on", "input"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "depends_on": {"type": "array", "items": {"type": "string"}},
          "assigned_agent": {"type": "string"},
          "input": {"type": "string"}
        }
      }
    }
  }
}`
