package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions for auto-migration. Every event table starts with the
// shared event columns (id, sequence, timestamp) so events of all types can
// be ordered by the global sequence.

var (
	// ChaptersColumns holds the columns for the "chapters" table.
	ChaptersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "title", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString, Default: ""},
		{Name: "grade", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ChaptersTable holds the schema information for the "chapters" table.
	ChaptersTable = &schema.Table{
		Name:       "chapters",
		Columns:    ChaptersColumns,
		PrimaryKey: []*schema.Column{ChaptersColumns[0]},
	}

	// ConceptsColumns holds the columns for the "concepts" table.
	ConceptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "name", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt, Default: 0},
		{Name: "chapter_id", Type: field.TypeString, Size: 64},
	}
	// ConceptsTable holds the schema information for the "concepts" table.
	ConceptsTable = &schema.Table{
		Name:       "concepts",
		Columns:    ConceptsColumns,
		PrimaryKey: []*schema.Column{ConceptsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "concepts_chapters_concepts",
				Columns:    []*schema.Column{ConceptsColumns[3]},
				RefColumns: []*schema.Column{ChaptersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "concept_chapter_id_position",
				Unique:  false,
				Columns: []*schema.Column{ConceptsColumns[3], ConceptsColumns[2]},
			},
		},
	}

	// QuestionsColumns holds the columns for the "questions" table.
	QuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "bloom_level", Type: field.TypeInt},
		{Name: "difficulty", Type: field.TypeInt},
		{Name: "stem", Type: field.TypeString, Size: 2147483647},
		{Name: "explanation", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "concept_id", Type: field.TypeString, Size: 64},
	}
	// QuestionsTable holds the schema information for the "questions" table.
	QuestionsTable = &schema.Table{
		Name:       "questions",
		Columns:    QuestionsColumns,
		PrimaryKey: []*schema.Column{QuestionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "questions_concepts_questions",
				Columns:    []*schema.Column{QuestionsColumns[5]},
				RefColumns: []*schema.Column{ConceptsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "question_concept_id",
				Unique:  false,
				Columns: []*schema.Column{QuestionsColumns[5]},
			},
		},
	}

	// OptionsColumns holds the columns for the "options" table.
	OptionsColumns = []*schema.Column{
		{Name: "question_id", Type: field.TypeString, Size: 64},
		{Name: "option_id", Type: field.TypeString, Size: 64},
		{Name: "position", Type: field.TypeInt},
		{Name: "text", Type: field.TypeString, Size: 2147483647},
		{Name: "is_correct", Type: field.TypeBool, Default: false},
		{Name: "misconception_tag", Type: field.TypeString, Nullable: true},
	}
	// OptionsTable holds the schema information for the "options" table.
	OptionsTable = &schema.Table{
		Name:       "options",
		Columns:    OptionsColumns,
		PrimaryKey: []*schema.Column{OptionsColumns[0], OptionsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "options_questions_options",
				Columns:    []*schema.Column{OptionsColumns[0]},
				RefColumns: []*schema.Column{QuestionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// SessionsColumns holds the columns for the "sessions" table.
	SessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "student_id", Type: field.TypeString},
		{Name: "chapter_id", Type: field.TypeString, Size: 64},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "ended_at", Type: field.TypeTime, Nullable: true},
	}
	// SessionsTable holds the schema information for the "sessions" table.
	SessionsTable = &schema.Table{
		Name:       "sessions",
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "session_student_id_ended_at",
				Unique:  false,
				Columns: []*schema.Column{SessionsColumns[1], SessionsColumns[4]},
			},
			{
				Name:    "session_chapter_id",
				Unique:  false,
				Columns: []*schema.Column{SessionsColumns[2]},
			},
		},
	}

	// AttemptsColumns holds the columns for the "attempts" table.
	AttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "is_correct", Type: field.TypeBool},
		{Name: "selected_option_id", Type: field.TypeString, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString, Size: 64},
		{Name: "question_id", Type: field.TypeString, Size: 64},
	}
	// AttemptsTable holds the schema information for the "attempts" table.
	AttemptsTable = &schema.Table{
		Name:       "attempts",
		Columns:    AttemptsColumns,
		PrimaryKey: []*schema.Column{AttemptsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "attempts_sessions_attempts",
				Columns:    []*schema.Column{AttemptsColumns[5]},
				RefColumns: []*schema.Column{SessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "attempts_questions_attempts",
				Columns:    []*schema.Column{AttemptsColumns[6]},
				RefColumns: []*schema.Column{QuestionsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "attempt_session_id_sequence",
				Unique:  false,
				Columns: []*schema.Column{AttemptsColumns[5], AttemptsColumns[1]},
			},
		},
	}

	// StarEventsColumns holds the columns for the "star_events" table.
	StarEventsColumns = eventColumns(
		&schema.Column{Name: "student_id", Type: field.TypeString},
		&schema.Column{Name: "session_id", Type: field.TypeString},
		&schema.Column{Name: "attempt_id", Type: field.TypeString},
		&schema.Column{Name: "question_id", Type: field.TypeString},
		&schema.Column{Name: "concept_id", Type: field.TypeString},
		&schema.Column{Name: "star_type", Type: field.TypeString},
		&schema.Column{Name: "difficulty", Type: field.TypeString},
	)
	// StarEventsTable holds the schema information for the "star_events" table.
	StarEventsTable = eventTable("star_events", StarEventsColumns, "student_id", "session_id")

	// MasteryEventsColumns holds the columns for the "mastery_events" table.
	MasteryEventsColumns = eventColumns(
		&schema.Column{Name: "student_id", Type: field.TypeString},
		&schema.Column{Name: "session_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "concept_id", Type: field.TypeString},
		&schema.Column{Name: "from_state", Type: field.TypeString},
		&schema.Column{Name: "to_state", Type: field.TypeString},
		&schema.Column{Name: "trigger", Type: field.TypeString},
		&schema.Column{Name: "proficiency_score", Type: field.TypeInt, Default: 0},
	)
	// MasteryEventsTable holds the schema information for the "mastery_events" table.
	MasteryEventsTable = eventTable("mastery_events", MasteryEventsColumns, "student_id", "concept_id")

	// SessionEventsColumns holds the columns for the "session_events" table.
	SessionEventsColumns = eventColumns(
		&schema.Column{Name: "session_id", Type: field.TypeString},
		&schema.Column{Name: "student_id", Type: field.TypeString},
		&schema.Column{Name: "chapter_id", Type: field.TypeString},
		&schema.Column{Name: "action", Type: field.TypeString},
		&schema.Column{Name: "attempts", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "correct", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "duration_secs", Type: field.TypeInt, Default: 0},
	)
	// SessionEventsTable holds the schema information for the "session_events" table.
	SessionEventsTable = eventTable("session_events", SessionEventsColumns, "session_id")

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = eventColumns(
		&schema.Column{Name: "provider", Type: field.TypeString},
		&schema.Column{Name: "model", Type: field.TypeString},
		&schema.Column{Name: "purpose", Type: field.TypeString},
		&schema.Column{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		&schema.Column{Name: "success", Type: field.TypeBool},
		&schema.Column{Name: "error_message", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		&schema.Column{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	)
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = eventTable("llm_request_events", LlmRequestEventsColumns, "provider", "purpose")

	// GlobalSequenceColumns holds the columns for the "global_sequence" table.
	GlobalSequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	// GlobalSequenceTable holds the single-row sequence counter.
	GlobalSequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    GlobalSequenceColumns,
		PrimaryKey: []*schema.Column{GlobalSequenceColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ChaptersTable,
		ConceptsTable,
		QuestionsTable,
		OptionsTable,
		SessionsTable,
		AttemptsTable,
		StarEventsTable,
		MasteryEventsTable,
		SessionEventsTable,
		LlmRequestEventsTable,
		GlobalSequenceTable,
	}
)

func init() {
	ConceptsTable.ForeignKeys[0].RefTable = ChaptersTable
	QuestionsTable.ForeignKeys[0].RefTable = ConceptsTable
	OptionsTable.ForeignKeys[0].RefTable = QuestionsTable
	AttemptsTable.ForeignKeys[0].RefTable = SessionsTable
	AttemptsTable.ForeignKeys[1].RefTable = QuestionsTable
}

// eventColumns prepends the shared event columns to cols.
func eventColumns(cols ...*schema.Column) []*schema.Column {
	return append([]*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
	}, cols...)
}

// eventTable builds an event table indexed on timestamp and the named columns.
func eventTable(name string, cols []*schema.Column, indexed ...string) *schema.Table {
	t := &schema.Table{
		Name:       name,
		Columns:    cols,
		PrimaryKey: []*schema.Column{cols[0]},
		Indexes: []*schema.Index{
			{Name: name + "_timestamp", Columns: []*schema.Column{cols[2]}},
		},
	}
	for _, n := range indexed {
		for _, c := range cols {
			if c.Name == n {
				t.Indexes = append(t.Indexes, &schema.Index{Name: name + "_" + n, Columns: []*schema.Column{c}})
			}
		}
	}
	return t
}
