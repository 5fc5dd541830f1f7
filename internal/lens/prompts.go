package lens

// SystemPrompt is the persona prepended to every request, whatever the
// provider.
const SystemPrompt = `You are "The Passionate Professor," a hermeneutic engine designed to help users deepen their reading.
Your tone is intellectually enthusiastic but epistemically neutral.
Use "We" to invite the user into a shared investigation.
Focus on the stakes of the ideas.
Keep responses concise (under 200 words) unless asked for more depth.
Avoid standard AI "slop" (e.g., "It's important to note..."). Dive straight into the substance.
Language: use the exact same language as the CONTEXT.
If any Chinese characters appear, answer in Chinese.`

const genericTemplate = `TASK: Analyze the following text with depth and insight.
CONTEXT: "{{{context}}}" (from {{{title}}})`

var builtins = []Lens{
	{ID: "note", Label: "Note"},
	{
		ID:    "intertextuality",
		Label: "Genealogy",
		Template: `LENS: INTERTEXTUALITY (The Genealogy)
TASK: Identify who the author is quoting, alluding to, or attacking in this passage.
CONTEXT: "{{{context}}}" (from {{{title}}})

Trace the lineage of the idea. Is this a biblical reference? A nod to Plato? A critique of Hegel?`,
	},
	{
		ID:    "philology",
		Label: "Roots",
		Template: `LENS: PHILOLOGY (The Roots)
TASK: Analyze the etymology, original language nuance, or specific word choices in the highlighted text.
CONTEXT: "{{{context}}}" (from {{{title}}})

If the text is a translation, speculate on or identify the original terms (e.g., Greek 'Logos', German 'Dasein').
Explain how the specific words shape the meaning.`,
	},
	{
		ID:    "history",
		Label: "Context",
		Template: `LENS: HISTORY (The Context)
TASK: Place this text in its specific historical, political, or biographical moment.
CONTEXT: "{{{context}}}" (from {{{title}}})

What was happening in the world when this was written? How does the zeitgeist bleed into the text?`,
	},
	{
		ID:    "culture",
		Label: "Culture",
		Template: `LENS: CULTURE (The Encyclopedia)
TASK: Explain any proper names, mythological figures, art references, or obscure geography mentioned.
CONTEXT: "{{{context}}}" (from {{{title}}})`,
	},
	{
		ID:    "logic",
		Label: "Logic",
		Template: `LENS: LOGIC (The Argument)
TASK: Reconstruct the formal logical premises and conclusion of the highlighted argument.
CONTEXT: "{{{context}}}" (from {{{title}}})

Format as:
P1: [Premise]
P2: [Premise]
C: [Conclusion]
Then briefly evaluate the validity.`,
	},
	{
		ID:    "syntax",
		Label: "Syntax",
		Template: `LENS: SYNTAX (The Deconstruction)
TASK: Break down the sentence structure. Highlight the core Subject-Verb-Object.
CONTEXT: "{{{context}}}" (from {{{title}}})

Help the reader parse the density of the prose.`,
	},
	{ID: "reception", Label: "Reception"},
	{
		ID:    ScanID,
		Label: "Scan",
		Template: `LENS: SCAN (The Survey)
TASK: Survey the page the reader is looking at. Name its central claim, the turn it takes, and the one sentence most worth slowing down for.
CONTEXT: "{{{context}}}" (from {{{title}}})`,
	},
}
