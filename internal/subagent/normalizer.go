package subagent

import "encoding/json"

// Normalize classifies one decoded stdout-line JSON value into zero or one
// NormalizedEvent, using an exhaustive set of classification rules. It is a
// pure function: no external state is consulted, and the choice between
// tool_call and tool_result depends only on whether the wrapper is
// item.completed (tool_result) or item.started/item.updated (tool_call).
//
// Timestamp is left zero; the caller (the manager's ingest path) stamps it
// at append time, since that is when the event is considered ingested.
func Normalize(raw map[string]any) (NormalizedEvent, bool) {
	typ, ok := raw["type"].(string)
	if !ok {
		return NormalizedEvent{}, false
	}

	switch typ {
	case "thread.started":
		threadID, _ := raw["threadId"].(string)
		return progressEvent(ThreadStartedContent{ThreadID: threadID}), true

	case "turn.started":
		return progressEvent(TurnStartedContent{Kind: "turn.started"}), true

	case "turn.completed":
		return progressEvent(TurnCompletedContent{Kind: "turn.completed", Usage: raw["usage"]}), true

	case "turn.failed":
		return errorEvent(TurnFailedContent{Kind: "turn.failed", Error: raw["error"]}), true

	case "error":
		return errorEvent(raw), true

	case "item.started", "item.updated", "item.completed":
		return normalizeItemEvent(typ, raw)

	default:
		return progressEvent(raw), true
	}
}

func normalizeItemEvent(wrapper string, raw map[string]any) (NormalizedEvent, bool) {
	item, _ := raw["item"].(map[string]any)
	itemType, _ := item["type"].(string)
	completed := wrapper == "item.completed"

	switch itemType {
	case "":
		return progressEvent(ItemContent{Kind: wrapper, Item: raw["item"]}), true

	case "agent_message":
		itemID, _ := item["id"].(string)
		text, _ := item["text"].(string)
		return messageEvent(MessageContent{
			Kind:     wrapper,
			ItemType: itemType,
			ItemID:   itemID,
			Text:     text,
		}), true

	case "reasoning":
		itemID, _ := item["id"].(string)
		text, _ := item["text"].(string)
		return progressEvent(ItemContent{
			Kind:     wrapper,
			ItemType: itemType,
			ItemID:   itemID,
			Text:     text,
		}), true

	case "command_execution":
		content := CommandExecutionContent{
			Status: stringField(item, "status"),
		}
		content.Command = stringField(item, "command")
		if ec, ok := intField(item, "exitCode"); ok {
			content.ExitCode = &ec
		}
		return toolEvent(completed, content), true

	case "file_change":
		content := FileChangeContent{
			Changes: item["changes"],
			Status:  stringField(item, "status"),
		}
		return toolEvent(completed, content), true

	case "mcp_tool_call":
		content := MCPToolCallContent{
			Server:    stringField(item, "server"),
			Tool:      stringField(item, "tool"),
			Status:    stringField(item, "status"),
			Arguments: item["arguments"],
			Result:    item["result"],
			Error:     item["error"],
		}
		return toolEvent(completed, content), true

	case "web_search":
		content := WebSearchContent{Query: stringField(item, "query")}
		return toolEvent(completed, content), true

	case "todo_list":
		return progressEvent(TodoListContent{Items: item["items"]}), true

	case "error":
		return errorEvent(ItemErrorContent{Message: stringField(item, "message")}), true

	default:
		return progressEvent(ItemContent{Kind: wrapper, ItemType: itemType, Item: raw["item"]}), true
	}
}

func toolEvent(completed bool, content any) NormalizedEvent {
	if completed {
		return NormalizedEvent{Type: EventToolResult, Content: content}
	}
	return NormalizedEvent{Type: EventToolCall, Content: content}
}

func progressEvent(content any) NormalizedEvent {
	return NormalizedEvent{Type: EventProgress, Content: content}
}

func messageEvent(content any) NormalizedEvent {
	return NormalizedEvent{Type: EventMessage, Content: content}
}

func errorEvent(content any) NormalizedEvent {
	return NormalizedEvent{Type: EventError, Content: content}
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
