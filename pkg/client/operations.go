package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/e-doso/edoso-client/pkg/types"
)

// Login exchanges credentials for an opaque bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var err error
	ctx, span := tracer.Start(ctx, "login")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var resp types.LoginResponse
	err = c.do(ctx, http.MethodPost, "/api/auth/login/", public, types.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Key == "" {
		err = fmt.Errorf("%w: login response carried no token", ErrServerFault)
		return "", err
	}
	return resp.Key, nil
}

func (c *Client) Register(ctx context.Context, req types.RegisterRequest) error {
	var err error
	ctx, span := tracer.Start(ctx, "register")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodPost, "/api/auth/register/", public, req, nil)
	return err
}

// Logout invalidates the token server side. Local session state is cleared by
// the session service regardless of the outcome of this call.
func (c *Client) Logout(ctx context.Context) error {
	var err error
	ctx, span := tracer.Start(ctx, "logout")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodPost, "/api/auth/logout/", authed, nil, nil)
	return err
}

func (c *Client) Profile(ctx context.Context) (types.Profile, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-profile")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var p types.Profile
	err = c.do(ctx, http.MethodGet, "/api/auth/profile/", authed, nil, &p)
	return p, err
}

func (c *Client) UpdateProfile(ctx context.Context, p types.Profile) (types.Profile, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-profile")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var updated types.Profile
	err = c.do(ctx, http.MethodPut, "/api/auth/profile/", authed, p, &updated)
	return updated, err
}

func (c *Client) ChangePassword(ctx context.Context, req types.PasswordChangeRequest) error {
	var err error
	ctx, span := tracer.Start(ctx, "change-password")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodPost, "/api/auth/password/change/", authed, req, nil)
	return err
}

// MyGroups lists the groups the authenticated user is a member of.
func (c *Client) MyGroups(ctx context.Context) ([]types.Group, error) {
	var err error
	ctx, span := tracer.Start(ctx, "my-groups")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var page types.Page[types.Group]
	err = c.do(ctx, http.MethodGet, "/api/grupos/meus-grupos/", authed, nil, &page)
	return page.Results, err
}

func (c *Client) Group(ctx context.Context, groupID int) (types.Group, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-group")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var g types.Group
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/api/grupos/%d/", groupID), authed, nil, &g)
	return g, err
}

func (c *Client) CreateGroup(ctx context.Context, req types.CreateGroupRequest) (types.Group, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-group")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var g types.Group
	err = c.do(ctx, http.MethodPost, "/api/grupos/", authed, req, &g)
	return g, err
}

// DeleteGroup removes a whole group. Danger zone; callers are expected to have
// confirmed the action with the user before getting here.
func (c *Client) DeleteGroup(ctx context.Context, groupID int) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-group")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/grupos/%d/", groupID), authed, nil, nil)
	return err
}

func (c *Client) GroupMembers(ctx context.Context, groupID int) ([]types.Member, error) {
	var err error
	ctx, span := tracer.Start(ctx, "group-members")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var page types.Page[types.Member]
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/api/grupos/%d/usuarios/", groupID), authed, nil, &page)
	return page.Results, err
}

func (c *Client) AccessCode(ctx context.Context, groupID int) (string, error) {
	var err error
	ctx, span := tracer.Start(ctx, "access-code")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var resp types.AccessCodeResponse
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/api/grupos/%d/codigo-de-acesso/", groupID), authed, nil, &resp)
	return resp.AccessCode, err
}

func (c *Client) JoinWithCode(ctx context.Context, code string) error {
	var err error
	ctx, span := tracer.Start(ctx, "join-with-code")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodPost, "/api/grupos/entrar-com-codigo/", authed, types.JoinWithCodeRequest{AccessCode: code}, nil)
	return err
}

func (c *Client) RemoveMember(ctx context.Context, groupID, userID int) error {
	var err error
	ctx, span := tracer.Start(ctx, "remove-member")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/api/grupos/%d/remover-membro/", groupID), authed, types.RemoveMemberRequest{UserID: userID}, nil)
	return err
}

func (c *Client) Elders(ctx context.Context, groupID int) (types.Page[types.Elder], error) {
	return getPage[types.Elder](ctx, c, "elders", fmt.Sprintf("/api/grupos/%d/idosos/", groupID))
}

func (c *Client) Elder(ctx context.Context, groupID, elderID int) (types.Elder, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-elder")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var e types.Elder
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/api/grupos/%d/idosos/%d/", groupID, elderID), authed, nil, &e)
	return e, err
}

func (c *Client) CreateElder(ctx context.Context, groupID int, e types.Elder) (types.Elder, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-elder")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var created types.Elder
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/api/grupos/%d/idosos/", groupID), authed, e, &created)
	return created, err
}

func (c *Client) UpdateElder(ctx context.Context, groupID, elderID int, e types.Elder) (types.Elder, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-elder")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var updated types.Elder
	err = c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/grupos/%d/idosos/%d/", groupID, elderID), authed, e, &updated)
	return updated, err
}

func (c *Client) DeleteElder(ctx context.Context, groupID, elderID int) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-elder")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/grupos/%d/idosos/%d/", groupID, elderID), authed, nil, nil)
	return err
}

func (c *Client) Medications(ctx context.Context, groupID int) (types.Page[types.Medication], error) {
	return getPage[types.Medication](ctx, c, "medications", fmt.Sprintf("/api/grupos/%d/medicamentos/", groupID))
}

func (c *Client) Medication(ctx context.Context, groupID, medicationID int) (types.Medication, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-medication")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var m types.Medication
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/api/grupos/%d/medicamentos/%d/", groupID, medicationID), authed, nil, &m)
	return m, err
}

func (c *Client) CreateMedication(ctx context.Context, groupID int, m types.Medication) (types.Medication, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-medication")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var created types.Medication
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/api/grupos/%d/medicamentos/", groupID), authed, m, &created)
	return created, err
}

func (c *Client) UpdateMedication(ctx context.Context, groupID, medicationID int, m types.Medication) (types.Medication, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-medication")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var updated types.Medication
	err = c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/grupos/%d/medicamentos/%d/", groupID, medicationID), authed, m, &updated)
	return updated, err
}

func (c *Client) DeleteMedication(ctx context.Context, groupID, medicationID int) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-medication")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/grupos/%d/medicamentos/%d/", groupID, medicationID), authed, nil, nil)
	return err
}

func (c *Client) Prescriptions(ctx context.Context, groupID int) (types.Page[types.Prescription], error) {
	return getPage[types.Prescription](ctx, c, "prescriptions", fmt.Sprintf("/api/grupos/%d/prescricoes/", groupID))
}

func (c *Client) Prescription(ctx context.Context, groupID, prescriptionID int) (types.Prescription, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-prescription")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var p types.Prescription
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/api/grupos/%d/prescricoes/%d/", groupID, prescriptionID), authed, nil, &p)
	return p, err
}

func (c *Client) CreatePrescription(ctx context.Context, groupID int, p types.Prescription) (types.Prescription, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-prescription")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var created types.Prescription
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/api/grupos/%d/prescricoes/", groupID), authed, p, &created)
	return created, err
}

func (c *Client) UpdatePrescription(ctx context.Context, groupID, prescriptionID int, p types.Prescription) (types.Prescription, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-prescription")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var updated types.Prescription
	err = c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/grupos/%d/prescricoes/%d/", groupID, prescriptionID), authed, p, &updated)
	return updated, err
}

func (c *Client) DeletePrescription(ctx context.Context, groupID, prescriptionID int) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-prescription")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/grupos/%d/prescricoes/%d/", groupID, prescriptionID), authed, nil, nil)
	return err
}

// Administer records a dose as administered, refused or skipped. Stock is
// decremented server side.
func (c *Client) Administer(ctx context.Context, groupID, prescriptionID int, req types.AdministerRequest) (types.AdministrationLog, error) {
	var err error
	ctx, span := tracer.Start(ctx, "administer")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var log types.AdministrationLog
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/api/grupos/%d/prescricoes/%d/administrar/", groupID, prescriptionID), authed, req, &log)
	return log, err
}

func (c *Client) AdministrationLogs(ctx context.Context, groupID int) (types.Page[types.AdministrationLog], error) {
	return getPage[types.AdministrationLog](ctx, c, "administration-logs", fmt.Sprintf("/api/grupos/%d/logs/", groupID))
}

// FetchPage follows an absolute next/previous cursor URL returned inside a page.
func FetchPage[T any](ctx context.Context, c *Client, cursorURL string) (types.Page[T], error) {
	return getPage[T](ctx, c, "fetch-page", cursorURL)
}

func getPage[T any](ctx context.Context, c *Client, op, pathOrURL string) (types.Page[T], error) {
	var err error
	ctx, span := tracer.Start(ctx, op)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var page types.Page[T]
	err = c.do(ctx, http.MethodGet, pathOrURL, authed, nil, &page)
	return page, err
}
