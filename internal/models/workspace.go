package models

import "time"

type Workspace struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	ParentID  *string    `json:"parent_id" yaml:"parent_id"`
	UserID    int        `json:"user_id" yaml:"user_id"`
	CreatedAt *time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

// WorkspaceNode is a workspace placed in the hierarchy built from the flat workspace list
type WorkspaceNode struct {
	Workspace `yaml:",inline"`
	Children  []*WorkspaceNode `json:"children" yaml:"children,omitempty"`
}

type CreateWorkspaceBody struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type RenameWorkspaceBody struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MoveWorkspaceBody struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`
}
