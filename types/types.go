package types

// QuestionType is the closed set of input kinds a question can use.
type QuestionType string

const (
	QuestionShortText                  QuestionType = "short_text"
	QuestionTextAreaLong               QuestionType = "text_area_long"
	QuestionDate                       QuestionType = "date"
	QuestionTime                       QuestionType = "time"
	QuestionDuration                   QuestionType = "duration"
	QuestionEmail                      QuestionType = "email"
	QuestionMultipleChoiceDropdownMenu QuestionType = "multiple_choice_dropdown_menu"
	QuestionDropdownSingleOption       QuestionType = "dropdown_single_option"
	QuestionMultipleOption             QuestionType = "multiple_option"
	QuestionSingleOption               QuestionType = "single_option"
	QuestionSliderRating               QuestionType = "slider_rating"
	QuestionUploadDocument             QuestionType = "upload_document"
)

// QuestionTypes lists every supported type in display order.
var QuestionTypes = []QuestionType{
	QuestionShortText,
	QuestionTextAreaLong,
	QuestionDate,
	QuestionTime,
	QuestionDuration,
	QuestionEmail,
	QuestionMultipleChoiceDropdownMenu,
	QuestionDropdownSingleOption,
	QuestionMultipleOption,
	QuestionSingleOption,
	QuestionSliderRating,
	QuestionUploadDocument,
}

type Question struct {
	QuestionText        string       `json:"question_text" jsonschema:"required,description=The question shown to the person filling the form"`
	QuestionType        QuestionType `json:"question_type" jsonschema:"required,enum=short_text,enum=text_area_long,enum=date,enum=time,enum=duration,enum=email,enum=multiple_choice_dropdown_menu,enum=dropdown_single_option,enum=multiple_option,enum=single_option,enum=slider_rating,enum=upload_document,description=Input kind of the question"`
	QuestionDescription string       `json:"question_description" jsonschema:"required,description=Short help text for the question"`
	QuestionExample     string       `json:"question_example" jsonschema:"required,description=Example answer or the option list for choice questions separated by slashes; for slider_rating a range like 1-5"`
}

type Step struct {
	StepName        string     `json:"step_name" jsonschema:"required,description=Name of the step"`
	StepDescription string     `json:"step_description" jsonschema:"required,description=What this step collects"`
	StepQuestions   []Question `json:"step_questions" jsonschema:"required,description=Ordered questions of the step"`
}

// FormContent is the exchange format produced by generation and edits.
type FormContent struct {
	FormTitle   string `json:"form_title" jsonschema:"required,description=Title of the form"`
	Description string `json:"description" jsonschema:"required,description=Concise description of the form"`
	Steps       []Step `json:"steps" jsonschema:"required,description=Ordered steps of the form"`
}

// FormDocument is the persisted envelope around FormContent.
// FormID is assigned once at creation and never changes.
type FormDocument struct {
	FormID      string      `json:"form_id"`
	CreatedAt   string      `json:"created_at"`
	FormContent FormContent `json:"form_content"`
}

// Issue points at a single problem inside a form document.
type Issue struct {
	JSONPointer string `json:"json_pointer"`
	Message     string `json:"message"`
}

// Clone returns a deep copy of the document.
func (d *FormDocument) Clone() *FormDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.FormContent = d.FormContent.Clone()
	return &out
}

func (c FormContent) Clone() FormContent {
	out := c
	if c.Steps != nil {
		out.Steps = make([]Step, len(c.Steps))
		for i, step := range c.Steps {
			out.Steps[i] = step
			if step.StepQuestions != nil {
				out.Steps[i].StepQuestions = append([]Question(nil), step.StepQuestions...)
			}
		}
	}
	return out
}

// QuestionCount returns the number of questions across all steps.
func (c FormContent) QuestionCount() int {
	n := 0
	for _, step := range c.Steps {
		n += len(step.StepQuestions)
	}
	return n
}
