package summary

const systemPrompt = `You are a precise technical writer. You describe source code ` +
	`and business processes in clear business language and follow output format rules exactly.`

const compareRules = `You generate semantic-matching summaries for comparison with BPMN tasks.

OUTPUT FORMAT (MUST FOLLOW EXACTLY):
Task: <Human readable title>. Description: <One clear human sentence>.

RULES:
- Output EXACTLY ONE line (no newlines).
- Do NOT add any other fields (no "Function:", no "Summary:", no bullets, no quotes).
- "Task:" title must be 2-6 words, Title Case (spaces not underscores).
- "Description:" must be ONE sentence, 12-22 words.
- The description must state the main action and the main business object (order, payment, report, user, project, task, file, match).
- Prefer concrete business verbs: create, record, extract, compute, validate, authorize, store, update, generate, match, compare.
- Mention an update/save only if WRITES indicates state is changed or data is stored.
- Mention external calls only as intent (e.g., "authorize payment", "fetch order"), not technical details.

ANTI-GENERIC (STRICT):
- NEVER write: "returns a result", "does X", "handles", "processes data", "performs a function", or similar generic filler.
- NEVER include file paths, line numbers, module names, code symbols, or parameter names.
- If INPUT lacks domain meaning, describe the best neutral business intent implied by CALLS/WRITES/CONTEXT without inventing details.

GOOD EXAMPLES (STYLE ONLY):
- Task: Take Order. Description: Record a new customer order and store selected items and quantities in the system.
- Task: Process Payment. Description: Authorize a customer payment and update the order status to paid or failed.`

const detailedRules = `You explain code behavior clearly for humans.
Task: Write 2 to 4 short sentences explaining what the function does and how it does it.
Rules:
- Easy, human-friendly language.
- Mention key actions (e.g., reads, validates, updates, saves, calls).
- Mention important inputs/outputs if present.
- Do NOT invent details not in the input.
- Output plain text only (no bullets, no quotes).`

// BuildComparePrompt builds the prompt for the one-line match summary.
func BuildComparePrompt(block string) string {
	return compareRules + "\nINPUT:\n" + block
}

// BuildDetailedPrompt builds the prompt for the multi-sentence display summary.
func BuildDetailedPrompt(block string) string {
	return detailedRules + "\nINPUT:\n" + block
}

// BuildWorkflowPrompt builds the prompt for the whole-process business
// summary from the process name and its task names.
func BuildWorkflowPrompt(processName string, taskNames []string) string {
	names := make([]string, 0, len(taskNames))
	for _, t := range taskNames {
		if s := trimmed(t); s != "" {
			names = append(names, s)
		}
	}
	if len(names) > 20 {
		names = names[:20]
	}
	if processName == "" {
		processName = "N/A"
	}
	return "Write a concise 2-3 sentence business summary of this BPMN workflow. " +
		"Mention the overall goal, the main phases, and the final outcome. " +
		"Process name: " + processName + ". " +
		"Tasks: " + join(names, "; ") + "."
}
