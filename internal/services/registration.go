package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/Urdemonlord/atlasproject/internal/models"
)

// RegistrationStage is a step of the sign-up flow.
type RegistrationStage string

const (
	StageAccount   RegistrationStage = "account"
	StageRole      RegistrationStage = "role"
	StageProfile   RegistrationStage = "profile"
	StageSubmitted RegistrationStage = "submitted"
)

type AccountStep struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type RoleStep struct {
	Role models.Role `json:"role" validate:"required,oneof=tenant owner"`
}

type ProfileStep struct {
	Name        string              `json:"name" validate:"required"`
	Phone       string              `json:"phone" validate:"required"`
	StudentInfo *models.StudentInfo `json:"student_info,omitempty" validate:"omitempty"`
}

// RegistrationFlow collects a sign-up across the account, role and profile
// stages. Each Submit* validates its stage before the flow advances; Back
// returns to the previous stage keeping what was entered.
type RegistrationFlow struct {
	mu      sync.Mutex
	users   IUserService
	stage   RegistrationStage
	account AccountStep
	role    RoleStep
	profile ProfileStep
}

func NewRegistrationFlow(users IUserService) *RegistrationFlow {
	return &RegistrationFlow{users: users, stage: StageAccount}
}

func (f *RegistrationFlow) Stage() RegistrationStage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

func (f *RegistrationFlow) expect(stage RegistrationStage) error {
	if f.stage != stage {
		return models.Validation("registration is at the %s stage, not %s", f.stage, stage)
	}
	return nil
}

func (f *RegistrationFlow) SubmitAccount(step AccountStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StageAccount); err != nil {
		return err
	}
	if err := validateStruct(step); err != nil {
		return err
	}
	f.account = step
	f.stage = StageRole
	return nil
}

func (f *RegistrationFlow) SubmitRole(step RoleStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StageRole); err != nil {
		return err
	}
	if err := validateStruct(step); err != nil {
		return err
	}
	f.role = step
	f.stage = StageProfile
	return nil
}

func (f *RegistrationFlow) SubmitProfile(step ProfileStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StageProfile); err != nil {
		return err
	}
	if err := validateStruct(step); err != nil {
		return err
	}
	if step.StudentInfo != nil && f.role.Role != models.RoleTenant {
		return models.Validation("student_info only applies to tenants")
	}
	f.profile = step
	return nil
}

// Back moves one stage back. It is a no-op at the first stage and after
// submission.
func (f *RegistrationFlow) Back() RegistrationStage {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.stage {
	case StageRole:
		f.stage = StageAccount
	case StageProfile:
		f.stage = StageRole
	}
	return f.stage
}

// Submit registers the collected account. The flow must be at the profile
// stage with a profile already accepted.
func (f *RegistrationFlow) Submit(ctx context.Context) (*AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StageProfile); err != nil {
		return nil, err
	}
	if f.profile.Name == "" {
		return nil, models.Validation("profile has not been submitted")
	}
	res, err := f.users.Register(ctx, RegisterInput{
		Name:        f.profile.Name,
		Email:       f.account.Email,
		Phone:       f.profile.Phone,
		Password:    f.account.Password,
		Role:        f.role.Role,
		StudentInfo: f.profile.StudentInfo,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	f.stage = StageSubmitted
	f.account.Password, f.account.ConfirmPassword = "", ""
	return res, nil
}
