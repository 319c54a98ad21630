package mocks

import (
	"context"

	"roster-manager/core/roblox"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of roblox.Client
type Client struct {
	mock.Mock
}

func (m *Client) GroupInfo(ctx context.Context) (*roblox.GroupInfo, error) {
	args := m.Called(ctx)
	if info, ok := args.Get(0).(*roblox.GroupInfo); ok {
		return info, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) GroupRoles(ctx context.Context) ([]roblox.Role, error) {
	args := m.Called(ctx)
	if roles, ok := args.Get(0).([]roblox.Role); ok {
		return roles, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) GroupMembers(ctx context.Context, limit int) ([]roblox.Member, error) {
	args := m.Called(ctx, limit)
	if members, ok := args.Get(0).([]roblox.Member); ok {
		return members, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) MemberRole(ctx context.Context, userID int64) (*roblox.Role, error) {
	args := m.Called(ctx, userID)
	if role, ok := args.Get(0).(*roblox.Role); ok {
		return role, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) UpdateMemberRole(ctx context.Context, userID, roleID int64) (roblox.UpdateStatus, error) {
	args := m.Called(ctx, userID, roleID)
	return args.Get(0).(roblox.UpdateStatus), args.Error(1)
}

func (m *Client) AddMember(ctx context.Context, userID, roleID int64) error {
	args := m.Called(ctx, userID, roleID)
	return args.Error(0)
}

func (m *Client) RemoveMember(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *Client) ResolveUserID(ctx context.Context, username string) (int64, bool, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}
