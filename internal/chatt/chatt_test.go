package chatt

import "testing"

func TestChooseModel(t *testing.T) {
	tests := []struct {
		name     string
		override string
		fallback string
		want     string
	}{
		{
			name:     "override wins",
			override: "anthropic/claude-3-haiku",
			fallback: "openai/gpt-3.5-turbo",
			want:     "anthropic/claude-3-haiku",
		},
		{
			name:     "empty override",
			override: "",
			fallback: "openai/gpt-3.5-turbo",
			want:     "openai/gpt-3.5-turbo",
		},
		{
			name:     "blank override",
			override: "   ",
			fallback: "openai/gpt-3.5-turbo",
			want:     "openai/gpt-3.5-turbo",
		},
		{
			name:     "override is trimmed",
			override: " mistralai/mistral-7b ",
			fallback: "openai/gpt-3.5-turbo",
			want:     "mistralai/mistral-7b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseModel(tt.override, tt.fallback); got != tt.want {
				t.Errorf("ChooseModel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "valid",
			req:     Request{SessionID: "default", Message: "hi"},
			wantErr: nil,
		},
		{
			name:    "missing session",
			req:     Request{Message: "hi"},
			wantErr: ErrMissingSession,
		},
		{
			name:    "blank message",
			req:     Request{SessionID: "default", Message: " \n"},
			wantErr: ErrMissingMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "user", want: RoleUser},
		{input: "Assistant", want: RoleAssistant},
		{input: " system ", want: RoleSystem},
		{input: "tool", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRole() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseRole() = %v, want %v", got, tt.want)
			}
		})
	}
}
