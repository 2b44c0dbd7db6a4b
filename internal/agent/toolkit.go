package agent

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/tools/sqldatabase"
)

// Tool names as the model sees them
const (
	listTablesToolName   = "sql_db_list_tables"
	schemaToolName       = "sql_db_schema"
	queryToolName        = "sql_db_query"
	queryCheckerToolName = "sql_db_query_checker"
)

const queryCheckerTemplate = `%s
Double check the %s query above for common mistakes, including:
- Using NOT IN with NULL values
- Using UNION when UNION ALL should have been used
- Using BETWEEN for exclusive ranges
- Data type mismatch in predicates
- Properly quoting identifiers
- Using the correct number of arguments for functions
- Casting to the correct data type
- Using the proper columns for joins

If there are any of the above mistakes, rewrite the query. If there are no mistakes, just reproduce the original query.

Output the final SQL query only.

SQL Query: `

// Toolkit returns the SQL tools handed to the agent. Tool failures are
// reported back to the model as observations so it can correct itself.
func Toolkit(db *sqldatabase.SQLDatabase, llm llms.Model) []tools.Tool {
	return []tools.Tool{
		listTablesTool{db: db},
		schemaTool{db: db},
		queryTool{db: db},
		queryCheckerTool{db: db, llm: llm},
	}
}

type listTablesTool struct{ db *sqldatabase.SQLDatabase }

func (listTablesTool) Name() string { return listTablesToolName }

func (listTablesTool) Description() string {
	return "Input is an empty string, output is a comma-separated list of tables in the database."
}

func (t listTablesTool) Call(_ context.Context, _ string) (string, error) {
	names := t.db.TableNames()
	slices.Sort(names)
	return strings.Join(names, ", "), nil
}

type schemaTool struct{ db *sqldatabase.SQLDatabase }

func (schemaTool) Name() string { return schemaToolName }

func (schemaTool) Description() string {
	return "Input to this tool is a comma-separated list of tables, output is the schema and sample rows for those tables. " +
		"Be sure that the tables actually exist by calling " + listTablesToolName + " first! " +
		"Example Input: table1, table2, table3"
}

func (t schemaTool) Call(ctx context.Context, input string) (string, error) {
	known := t.db.TableNames()
	var tables, missing []string
	for _, name := range strings.Split(input, ",") {
		name = strings.Trim(strings.TrimSpace(name), "\"'`")
		if name == "" {
			continue
		}
		if !slices.Contains(known, name) {
			missing = append(missing, name)
			continue
		}
		tables = append(tables, name)
	}
	if len(missing) > 0 {
		return fmt.Sprintf("Error: table_names %v not found in database", missing), nil
	}
	if len(tables) == 0 {
		return "Error: no table names given", nil
	}
	info, err := t.db.TableInfo(ctx, tables)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return info, nil
}

type queryTool struct{ db *sqldatabase.SQLDatabase }

func (queryTool) Name() string { return queryToolName }

func (queryTool) Description() string {
	return "Input to this tool is a detailed and correct SQL query, output is a result from the database. " +
		"If the query is not correct, an error message will be returned. " +
		"If an error is returned, rewrite the query, check the query, and try again. " +
		"If you encounter an issue with Unknown column 'xxxx' in 'field list', use " + schemaToolName +
		" to query the correct table fields."
}

func (t queryTool) Call(ctx context.Context, input string) (string, error) {
	out, err := t.db.Query(ctx, strings.TrimSpace(input))
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return out, nil
}

type queryCheckerTool struct {
	db  *sqldatabase.SQLDatabase
	llm llms.Model
}

func (queryCheckerTool) Name() string { return queryCheckerToolName }

func (queryCheckerTool) Description() string {
	return "Use this tool to double check if your query is correct before executing it. " +
		"Always use this tool before executing a query with " + queryToolName + "!"
}

func (t queryCheckerTool) Call(ctx context.Context, input string) (string, error) {
	prompt := fmt.Sprintf(queryCheckerTemplate, input, t.db.Dialect())
	out, err := llms.GenerateFromSinglePrompt(ctx, t.llm, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("query checker: %w", err)
	}
	return strings.TrimSpace(out), nil
}
