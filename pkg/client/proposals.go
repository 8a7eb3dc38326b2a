package client

import (
	"context"
	"net/http"
)

// PendingProposals lists proposals awaiting a decision, newest first.
func (c *Client) PendingProposals(ctx context.Context) (*ProposalList, error) {
	var list ProposalList
	if err := c.do(ctx, http.MethodGet, "/api/proposals/pending", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ProposalCount returns how many proposals are pending.
func (c *Client) ProposalCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/proposals/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// GetProposal fetches one proposal with full before/after content and diffs.
func (c *Client) GetProposal(ctx context.Context, id string) (*ProposalDetail, error) {
	var detail ProposalDetail
	if err := c.do(ctx, http.MethodGet, "/api/proposals/"+id, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ApproveProposal applies a proposal to the workspace.
func (c *Client) ApproveProposal(ctx context.Context, id string, opts ApproveOptions) (*DecisionResult, error) {
	var result DecisionResult
	if err := c.do(ctx, http.MethodPost, "/api/proposals/"+id+"/approve", opts, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectProposal discards a proposal without touching the workspace.
func (c *Client) RejectProposal(ctx context.Context, id string) (*DecisionResult, error) {
	var result DecisionResult
	if err := c.do(ctx, http.MethodPost, "/api/proposals/"+id+"/reject", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClearProposals discards every pending proposal and returns how many.
func (c *Client) ClearProposals(ctx context.Context) (int, error) {
	var out struct {
		Cleared int    `json:"cleared"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/proposals/all", nil, &out); err != nil {
		return 0, err
	}
	return out.Cleared, nil
}
