// Package catalog holds the static course catalog: which workshops exist,
// what each one covers, and who taught it. The catalog is hand-authored,
// immutable, and injected into the router and meta-question answerer so tests
// can substitute synthetic tables.
package catalog

// Workshop describes one transcript document in the corpus.
type Workshop struct {
	// ID matches the document id used by the vector index (e.g. "WS1").
	ID    string
	Title string
	// Keywords drive keyword routing. Multi-word keywords also score on
	// their constituent words.
	Keywords []string

	Instructor   string
	GuestSpeaker string
	// Topics is the human-readable topic list used for meta answers.
	Topics []string
}

// Speaker describes an instructor or guest across the course.
type Speaker struct {
	Name      string
	Role      string
	Specialty string
	Workshops []string
}

// Catalog is the full course description. Workshops preserves discovery
// order; that order is the router's tie-break.
type Catalog struct {
	CourseTitle       string
	CourseDescription string
	MainInstructor    string
	Workshops         []Workshop
	Speakers          []Speaker
}

// Lookup returns the workshop with the given id.
func (c *Catalog) Lookup(id string) (Workshop, bool) {
	for _, ws := range c.Workshops {
		if ws.ID == id {
			return ws, true
		}
	}
	return Workshop{}, false
}

// IDs returns all workshop ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Workshops))
	for i, ws := range c.Workshops {
		ids[i] = ws.ID
	}
	return ids
}

// Default returns the catalog for the LLM SDLC course corpus.
func Default() *Catalog {
	return &Catalog{
		CourseTitle:       "Generative AI and SDLC for LLMs Course",
		CourseDescription: "a comprehensive course covering the software development lifecycle for LLM-powered applications",
		MainInstructor:    "Hugo Bowne-Anderson",
		Workshops: []Workshop{
			{
				ID:    "WS1",
				Title: "Generative AI and SDLC for LLMs",
				Keywords: []string{
					"generative ai", "sdlc", "software development lifecycle", "llm applications",
					"non-deterministic systems", "iteration", "tools", "frameworks",
					"foundational app", "querying pdfs", "what is generative ai",
				},
				Instructor: "Hugo Bowne-Anderson",
				Topics:     []string{"What is Generative AI?", "SDLC for LLM applications", "Non-deterministic systems", "Tools and frameworks"},
			},
			{
				ID:    "WS2",
				Title: "Prompt Engineering in the LLM SDLC",
				Keywords: []string{
					"prompt engineering", "api knobs", "temperature", "top_p", "max_tokens",
					"system prompt", "prompt refinement", "prompt optimization", "prompting",
				},
				Instructor: "Hugo Bowne-Anderson",
				Topics:     []string{"API parameters", "Prompt engineering basics", "Iterative refinement"},
			},
			{
				ID:    "WS3",
				Title: "Evaluation and Iteration",
				Keywords: []string{
					"evaluation", "llm outputs", "qualitative", "quantitative", "metrics",
					"relevance", "coherence", "user satisfaction", "feedback loops",
					"thumbs up", "thumbs down", "assessment", "measuring performance",
				},
				Instructor: "Hugo Bowne-Anderson",
				Topics:     []string{"LLM output evaluation", "Metrics for success", "Feedback loops"},
			},
			{
				ID:    "WS4",
				Title: "Observability and Debugging",
				Keywords: []string{
					"observability", "debugging", "logging", "tracing", "monitoring",
					"performance", "hallucinations", "api failures", "production monitoring",
					"scaling observability", "troubleshooting", "errors",
				},
				Instructor: "Stefan",
				Topics:     []string{"Logging and tracing", "Debugging LLM issues", "Production monitoring"},
			},
			{
				ID:    "WS5",
				Title: "Information Retrieval -> Agents",
				Keywords: []string{
					"embeddings", "vector stores", "information retrieval", "rag",
					"retrieval augmented generation", "semantic search", "vectors",
					"similarity search", "knowledge base", "document retrieval",
				},
				Instructor:   "Hugo Bowne-Anderson",
				GuestSpeaker: "William Horton",
				Topics:       []string{"Embeddings", "Vector stores", "RAG systems", "Production ML"},
			},
			{
				ID:    "WS6",
				Title: "Structured Outputs, Function Calling, and Agentic Workflows",
				Keywords: []string{
					"structured outputs", "function calling", "agentic workflows",
					"unstructured data", "linkedin profiles", "json responses",
					"api responses", "automate actions", "send email", "structured data",
				},
				Instructor: "Hugo Bowne-Anderson",
				Topics:     []string{"Structured outputs", "Function calling", "Agentic workflows"},
			},
			{
				ID:    "WS7",
				Title: "Multi-Agentic Workflows",
				Keywords: []string{
					"multi-agent", "multi-agentic", "advanced prompt optimization",
					"dynamic prompts", "agent collaboration", "apis", "multiple models",
					"future trends", "open-source models", "lightweight deployment",
				},
				Instructor: "Hugo Bowne-Anderson",
				Topics:     []string{"Advanced prompt optimization", "Multi-agent collaboration"},
			},
			{
				ID:    "WS8",
				Title: "Fine-tuning and Production LLM Applications",
				Keywords: []string{
					"fine-tuning", "fine tuning", "datasets", "data collection", "data cleaning",
					"data formatting", "production", "productionizing", "reliability",
					"api scaling", "rate limits", "deployment", "training",
				},
				Instructor: "Hugo Bowne-Anderson",
				Topics:     []string{"Fine-tuning basics", "Dataset preparation", "Production deployment"},
			},
		},
		Speakers: []Speaker{
			{
				Name:      "Hugo Bowne-Anderson",
				Role:      "Main Instructor & Course Creator",
				Specialty: "",
				Workshops: []string{"WS1", "WS2", "WS3", "WS5", "WS6", "WS7", "WS8"},
			},
			{
				Name:      "Stefan",
				Role:      "Guest Expert - Testing & Development",
				Specialty: "Testing, development loops, and production practices",
				Workshops: []string{"WS4"},
			},
			{
				Name:      "William Horton",
				Role:      "Guest Expert - Production ML",
				Specialty: "Production machine learning systems and deployment",
				Workshops: []string{"WS5"},
			},
		},
	}
}
