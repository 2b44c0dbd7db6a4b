// Package agent runs the tool-calling language model that answers questions
// by querying the recommendation database.
package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools/sqldatabase"

	"github.com/HHN/idealize-recommendation/internal/config"
	"github.com/HHN/idealize-recommendation/internal/logging"
)

// Agent turns an instruction plus question into the model's final answer
type Agent interface {
	Run(ctx context.Context, input string) (string, error)
}

const preambleTemplate = `You are an agent designed to interact with a SQL database.
Given an input question, create a syntactically correct %[1]s query to run, then look at the results of the query and return the answer.
Unless the user specifies a specific number of examples they wish to obtain, always limit your query to at most %[2]d results.
You can order the results by a relevant column to return the most interesting examples in the database.
Never query for all the columns from a specific table, only ask for the relevant columns given the question.
You MUST double check your query before executing it. If you get an error while executing a query, rewrite the query and try again.
DO NOT make any DML statements (INSERT, UPDATE, DELETE, DROP etc.) to the database.
Start by listing the tables in the database, then look at the schema of the most relevant tables.
`

// hiddenTables are never shown to the model
var hiddenTables = map[string]struct{}{"chat_log": {}}

// SQLAgent is an OpenAI tool-calling agent over the SQL toolkit
type SQLAgent struct {
	executor *agents.Executor
	preamble string
	log      zerolog.Logger
}

// New builds the configured model and wraps it in an SQL agent
func New(cfg config.LLMConfig, engine sqldatabase.Engine, log zerolog.Logger) (*SQLAgent, error) {
	llm, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithModel(llm, engine, cfg, log)
}

// NewWithModel wires an agent around an existing model
func NewWithModel(llm llms.Model, engine sqldatabase.Engine, cfg config.LLMConfig, log zerolog.Logger) (*SQLAgent, error) {
	db, err := sqldatabase.NewSQLDatabase(engine, hiddenTables)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect database: %w", err)
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 15
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 10
	}

	toolAgent := agents.NewOpenAIFunctionsAgent(llm, Toolkit(db, llm))
	return &SQLAgent{
		executor: agents.NewExecutor(toolAgent, agents.WithMaxIterations(maxIterations)),
		preamble: fmt.Sprintf(preambleTemplate, db.Dialect(), topK),
		log:      logging.Component(log, "agent"),
	}, nil
}

// Run executes the agent loop until the model produces a final answer
func (a *SQLAgent) Run(ctx context.Context, input string) (string, error) {
	a.log.Debug().Int("input_len", len(input)).Msg("agent run")
	out, err := chains.Run(ctx, a.executor, a.preamble+"\n"+input)
	if err != nil {
		return "", err
	}
	a.log.Debug().Int("output_len", len(out)).Msg("agent finished")
	return out, nil
}
