// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import (
	"context"

	"github.com/samber/oops"

	"github.com/trailhead/trailhead/internal/identity"
	"github.com/trailhead/trailhead/internal/policy"
)

// PasswordHasher hashes account passwords on user creation.
// The concrete implementation lives in internal/auth.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// RosterInvalidator drops cached unit rosters after membership changes.
type RosterInvalidator interface {
	Invalidate(unitID int64)
}

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Units       UnitRepository
	Users       UserRepository
	Items       ItemRepository
	Quests      QuestRepository
	Instances   ItemInstanceRepository
	Found       FoundItemRepository
	Runs        QuestRunRepository
	Directory   policy.UserDirectory
	Progression *Progression
	Hasher      PasswordHasher
	Roster      RosterInvalidator // nil when the directory is uncached
}

// Service exposes every operation of the backend. Each operation owns a
// fixed policy chain, evaluated before any repository access; the chains
// are declared together in newChains so the non-overlapping-keys invariant
// can be reviewed in one place.
type Service struct {
	units       UnitRepository
	users       UserRepository
	items       ItemRepository
	quests      QuestRepository
	instances   ItemInstanceRepository
	found       FoundItemRepository
	runs        QuestRunRepository
	progression *Progression
	hasher      PasswordHasher
	roster      RosterInvalidator

	chains chains
}

// chains holds the per-operation policy sets. Keys written by each set
// never overlap within one chain, so last-writer-wins merging in Scope can
// never silently drop a constraint.
type chains struct {
	unitMutate policy.Chain
	unitDelete policy.Chain

	userList   policy.Chain
	userGet    policy.Chain
	userCreate policy.Chain
	userUpdate policy.Chain
	userDelete policy.Chain

	itemRead   policy.Chain
	itemMutate policy.Chain
	itemDelete policy.Chain

	questRead   policy.Chain
	questScout  policy.Chain
	questCreate policy.Chain
	questUpdate policy.Chain
	questDelete policy.Chain
	questStart  policy.Chain

	instanceRead   policy.Chain
	instanceCreate policy.Chain
	instanceUpdate policy.Chain
	instanceDelete policy.Chain

	foundRead   policy.Chain
	foundCreate policy.Chain
	foundDelete policy.Chain
	foundReport policy.Chain

	runRead   policy.Chain
	runMutate policy.Chain
	runDelete policy.Chain
}

func newChains(dir policy.UserDirectory) chains {
	adminOnly := policy.FilterRoles(identity.RoleAdmin)
	adminOrLeader := policy.FilterRoles(identity.RoleAdmin, identity.RoleLeader)

	return chains{
		unitMutate: policy.Chain{adminOnly, policy.StripNestedObjects()},
		unitDelete: policy.Chain{adminOnly},

		userList:   policy.Chain{adminOrLeader, policy.FilterUnit(policy.KeyUnitID)},
		userGet:    policy.Chain{policy.FilterOwner(policy.KeyID)},
		userCreate: policy.Chain{adminOrLeader, policy.StripNestedObjects(), policy.AppendUnit()},
		userUpdate: policy.Chain{adminOrLeader, policy.StripNestedObjects(), policy.FilterUnit(policy.KeyUnitID)},
		userDelete: policy.Chain{adminOnly},

		itemRead:   policy.Chain{adminOrLeader, policy.OnlyPublicToLeaders()},
		itemMutate: policy.Chain{adminOnly, policy.StripNestedObjects()},
		itemDelete: policy.Chain{adminOnly},

		questRead:   policy.Chain{policy.OnlyPublishedToScouts(), policy.FilterUnit(policy.KeyUnitID)},
		questScout:  policy.Chain{policy.FilterRoles(identity.RoleScout), policy.OnlyPublishedToScouts(), policy.FilterUnit(policy.KeyUnitID)},
		questCreate: policy.Chain{adminOrLeader, policy.StripNestedObjects(), policy.AppendUnit()},
		questUpdate: policy.Chain{adminOrLeader, policy.StripNestedObjects(), policy.FilterUnit(policy.KeyUnitID), policy.AppendUnit()},
		questDelete: policy.Chain{adminOrLeader, policy.FilterUnit(policy.KeyUnitID)},
		questStart:  policy.Chain{policy.FilterRoles(identity.RoleScout), policy.StripNestedObjects()},

		instanceRead:   policy.Chain{policy.FilterUnit(policy.KeyUnitID)},
		instanceCreate: policy.Chain{adminOrLeader, policy.StripNestedObjects(), policy.AppendUnit()},
		instanceUpdate: policy.Chain{adminOrLeader, policy.StripNestedObjects(), policy.FilterUnit(policy.KeyUnitID), policy.AppendUnit()},
		instanceDelete: policy.Chain{adminOrLeader, policy.FilterUnit(policy.KeyUnitID)},

		foundRead:   policy.Chain{policy.FilterOwnerOrLeaderOfOwner(dir)},
		foundCreate: policy.Chain{adminOnly, policy.StripNestedObjects()},
		foundDelete: policy.Chain{adminOnly},
		foundReport: policy.Chain{policy.StripNestedObjects(), policy.FilterOwner(policy.KeyUserID), policy.AppendUser(policy.KeyUserID)},

		runRead:   policy.Chain{policy.FilterOwnerOrLeaderOfOwner(dir)},
		runMutate: policy.Chain{adminOnly, policy.StripNestedObjects()},
		runDelete: policy.Chain{adminOnly},
	}
}

// NewService creates a Service with the given configuration.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		units:       cfg.Units,
		users:       cfg.Users,
		items:       cfg.Items,
		quests:      cfg.Quests,
		instances:   cfg.Instances,
		found:       cfg.Found,
		runs:        cfg.Runs,
		progression: cfg.Progression,
		hasher:      cfg.Hasher,
		roster:      cfg.Roster,
		chains:      newChains(cfg.Directory),
	}
}

// --- Units ---

// ListUnits returns all units. Unit names are public directory data.
func (s *Service) ListUnits(ctx context.Context, opts ListOptions) ([]*Unit, int64, error) {
	return s.units.List(ctx, policy.Scope{}, opts)
}

// GetUnit returns one unit.
func (s *Service) GetUnit(ctx context.Context, id int64) (*Unit, error) {
	return s.units.Get(ctx, id, policy.Scope{})
}

// CreateUnit creates a unit. Admin only.
func (s *Service) CreateUnit(ctx context.Context, ident identity.Identity, body map[string]any) (*Unit, error) {
	req, err := s.chains.unitMutate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	req.Scope.ApplyOverrides(req.Body)

	u := &Unit{}
	if err := applyUnitPayload(u, req.Body); err != nil {
		return nil, err
	}
	if err := ValidateName(u.Name); err != nil {
		return nil, err
	}
	if err := s.units.Create(ctx, u); err != nil {
		return nil, oops.Wrapf(err, "create unit")
	}
	return u, nil
}

// UpdateUnit modifies a unit. Admin only.
func (s *Service) UpdateUnit(ctx context.Context, ident identity.Identity, id int64, body map[string]any) (*Unit, error) {
	req, err := s.chains.unitMutate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	u, err := s.units.Get(ctx, id, req.Scope)
	if err != nil {
		return nil, oops.Wrapf(err, "update unit %d", id)
	}
	req.Scope.ApplyOverrides(req.Body)
	if err := applyUnitPayload(u, req.Body); err != nil {
		return nil, err
	}
	if err := ValidateName(u.Name); err != nil {
		return nil, err
	}
	if err := s.units.Update(ctx, u); err != nil {
		return nil, oops.Wrapf(err, "update unit %d", id)
	}
	return u, nil
}

// DeleteUnit removes a unit and everything it owns. Admin only.
func (s *Service) DeleteUnit(ctx context.Context, ident identity.Identity, id int64) error {
	if _, err := s.chains.unitDelete.Run(ctx, ident, nil); err != nil {
		return err
	}
	if err := s.units.Delete(ctx, id); err != nil {
		return oops.Wrapf(err, "delete unit %d", id)
	}
	if s.roster != nil {
		s.roster.Invalidate(id)
	}
	return nil
}

// --- Users ---

// ListUsers returns users visible to the caller: the caller's unit for
// leaders, everyone for admins.
func (s *Service) ListUsers(ctx context.Context, ident identity.Identity, opts ListOptions) ([]*User, int64, error) {
	req, err := s.chains.userList.Run(ctx, ident, nil)
	if err != nil {
		return nil, 0, err
	}
	return s.users.List(ctx, req.Scope, opts)
}

// GetUser returns one user. Non-admins can only fetch themselves.
func (s *Service) GetUser(ctx context.Context, ident identity.Identity, id int64) (*User, error) {
	req, err := s.chains.userGet.Run(ctx, ident, nil)
	if err != nil {
		return nil, err
	}
	return s.users.Get(ctx, id, req.Scope)
}

// CreateUser creates an account. Leaders always create into their own unit.
func (s *Service) CreateUser(ctx context.Context, ident identity.Identity, body map[string]any, password string) (*User, error) {
	req, err := s.chains.userCreate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	req.Scope.ApplyOverrides(req.Body)

	u := &User{Role: identity.RoleScout}
	if err := applyUserPayload(u, req.Body); err != nil {
		return nil, err
	}
	if err := ValidateName(u.Name); err != nil {
		return nil, err
	}
	if err := ValidateEmail(u.Email); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Wrapf(err, "hash password")
	}
	u.PasswordHash = hash

	if err := s.users.Create(ctx, u); err != nil {
		return nil, oops.Wrapf(err, "create user")
	}
	s.invalidateRoster(u.UnitID)
	return u, nil
}

// UpdateUser modifies an account within the caller's scope.
func (s *Service) UpdateUser(ctx context.Context, ident identity.Identity, id int64, body map[string]any) (*User, error) {
	req, err := s.chains.userUpdate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, id, req.Scope)
	if err != nil {
		return nil, oops.Wrapf(err, "update user %d", id)
	}
	previousUnit := u.UnitID
	req.Scope.ApplyOverrides(req.Body)
	if err := applyUserPayload(u, req.Body); err != nil {
		return nil, err
	}
	if err := ValidateName(u.Name); err != nil {
		return nil, err
	}
	if err := ValidateEmail(u.Email); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, oops.Wrapf(err, "update user %d", id)
	}
	s.invalidateRoster(previousUnit)
	s.invalidateRoster(u.UnitID)
	return u, nil
}

// DeleteUser removes an account and its runs and finds. Admin only.
func (s *Service) DeleteUser(ctx context.Context, ident identity.Identity, id int64) error {
	if _, err := s.chains.userDelete.Run(ctx, ident, nil); err != nil {
		return err
	}
	u, err := s.users.Get(ctx, id, policy.Scope{})
	if err != nil {
		return oops.Wrapf(err, "delete user %d", id)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return oops.Wrapf(err, "delete user %d", id)
	}
	s.invalidateRoster(u.UnitID)
	return nil
}

func (s *Service) invalidateRoster(unitID *int64) {
	if s.roster != nil && unitID != nil {
		s.roster.Invalidate(*unitID)
	}
}

// --- Items ---

// ListItems returns catalog items: all of them for admins, public ones for
// leaders.
func (s *Service) ListItems(ctx context.Context, ident identity.Identity, opts ListOptions) ([]*Item, int64, error) {
	req, err := s.chains.itemRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, 0, err
	}
	return s.items.List(ctx, req.Scope, opts)
}

// GetItem returns one catalog item within the caller's visibility.
func (s *Service) GetItem(ctx context.Context, ident identity.Identity, id int64) (*Item, error) {
	req, err := s.chains.itemRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, err
	}
	return s.items.Get(ctx, id, req.Scope)
}

// CreateItem creates a catalog item. Admin only.
func (s *Service) CreateItem(ctx context.Context, ident identity.Identity, body map[string]any) (*Item, error) {
	req, err := s.chains.itemMutate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	req.Scope.ApplyOverrides(req.Body)

	it := &Item{Type: ItemTypePrivate}
	if err := applyItemPayload(it, req.Body); err != nil {
		return nil, err
	}
	if err := ValidateName(it.Name); err != nil {
		return nil, err
	}
	if err := ValidateDescription(it.Description); err != nil {
		return nil, err
	}
	if err := it.Type.Validate(); err != nil {
		return nil, err
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, oops.Wrapf(err, "create item")
	}
	return it, nil
}

// UpdateItem modifies a catalog item. Admin only.
func (s *Service) UpdateItem(ctx context.Context, ident identity.Identity, id int64, body map[string]any) (*Item, error) {
	req, err := s.chains.itemMutate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	it, err := s.items.Get(ctx, id, req.Scope)
	if err != nil {
		return nil, oops.Wrapf(err, "update item %d", id)
	}
	req.Scope.ApplyOverrides(req.Body)
	if err := applyItemPayload(it, req.Body); err != nil {
		return nil, err
	}
	if err := it.Type.Validate(); err != nil {
		return nil, err
	}
	if err := s.items.Update(ctx, it); err != nil {
		return nil, oops.Wrapf(err, "update item %d", id)
	}
	return it, nil
}

// DeleteItem removes a catalog item and its placements. Admin only.
func (s *Service) DeleteItem(ctx context.Context, ident identity.Identity, id int64) error {
	if _, err := s.chains.itemDelete.Run(ctx, ident, nil); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return oops.Wrapf(err, "delete item %d", id)
	}
	return nil
}

// --- Quests ---

// ListQuests returns quests within the caller's unit; scouts see only
// published ones.
func (s *Service) ListQuests(ctx context.Context, ident identity.Identity, opts ListOptions) ([]*Quest, int64, error) {
	req, err := s.chains.questRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, 0, err
	}
	return s.quests.List(ctx, req.Scope, opts)
}

// GetQuest returns one quest within the caller's visibility.
func (s *Service) GetQuest(ctx context.Context, ident identity.Identity, id int64) (*Quest, error) {
	req, err := s.chains.questRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, err
	}
	return s.quests.Get(ctx, id, req.Scope)
}

// ListQuestsForScout returns the scout's visible quests annotated with the
// scout's own run state.
func (s *Service) ListQuestsForScout(ctx context.Context, ident identity.Identity, opts ListOptions) ([]*ScoutQuest, int64, error) {
	req, err := s.chains.questScout.Run(ctx, ident, nil)
	if err != nil {
		return nil, 0, err
	}
	quests, total, err := s.quests.List(ctx, req.Scope, opts)
	if err != nil {
		return nil, 0, err
	}

	questIDs := make([]int64, len(quests))
	for i, q := range quests {
		questIDs[i] = q.ID
	}
	runs, err := s.runs.ListByQuestIDs(ctx, questIDs, ident.UserID)
	if err != nil {
		return nil, 0, oops.Wrapf(err, "annotate quests for user %d", ident.UserID)
	}
	runByQuest := make(map[int64]*QuestRun, len(runs))
	for _, r := range runs {
		runByQuest[r.QuestID] = r
	}

	annotated := make([]*ScoutQuest, len(quests))
	for i, q := range quests {
		sq := &ScoutQuest{Quest: *q}
		if run, ok := runByQuest[q.ID]; ok {
			sq.Completed = run.Completed
			start := run.StartTime
			sq.StartRunTime = &start
			sq.FinishRunTime = run.FinishTime
		}
		annotated[i] = sq
	}
	return annotated, total, nil
}

// CreateQuest creates a quest. Leaders always create into their own unit;
// only admins may choose the unit freely.
func (s *Service) CreateQuest(ctx context.Context, ident identity.Identity, body map[string]any) (*Quest, error) {
	req, err := s.chains.questCreate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	req.Scope.ApplyOverrides(req.Body)

	q := &Quest{}
	if err := applyQuestPayload(q, req.Body); err != nil {
		return nil, err
	}
	if err := ValidateName(q.Name); err != nil {
		return nil, err
	}
	if err := ValidateTimeLimit(q.TimeLimit); err != nil {
		return nil, err
	}
	if err := s.quests.Create(ctx, q); err != nil {
		return nil, oops.Wrapf(err, "create quest")
	}
	return q, nil
}

// UpdateQuest modifies a quest within the caller's unit.
func (s *Service) UpdateQuest(ctx context.Context, ident identity.Identity, id int64, body map[string]any) (*Quest, error) {
	req, err := s.chains.questUpdate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	q, err := s.quests.Get(ctx, id, req.Scope)
	if err != nil {
		return nil, oops.Wrapf(err, "update quest %d", id)
	}
	req.Scope.ApplyOverrides(req.Body)
	if err := applyQuestPayload(q, req.Body); err != nil {
		return nil, err
	}
	if err := ValidateName(q.Name); err != nil {
		return nil, err
	}
	if err := ValidateTimeLimit(q.TimeLimit); err != nil {
		return nil, err
	}
	if err := s.quests.Update(ctx, q, req.Scope); err != nil {
		return nil, oops.Wrapf(err, "update quest %d", id)
	}
	return q, nil
}

// DeleteQuest removes a quest and everything under it, scoped to the
// caller's unit.
func (s *Service) DeleteQuest(ctx context.Context, ident identity.Identity, id int64) error {
	req, err := s.chains.questDelete.Run(ctx, ident, nil)
	if err != nil {
		return err
	}
	if err := s.quests.Delete(ctx, id, req.Scope); err != nil {
		return oops.Wrapf(err, "delete quest %d", id)
	}
	return nil
}

// StartQuest starts or resumes the calling scout's run of the quest named
// in the body.
func (s *Service) StartQuest(ctx context.Context, ident identity.Identity, body map[string]any) (StartResult, error) {
	req, err := s.chains.questStart.Run(ctx, ident, body)
	if err != nil {
		return StartResult{}, err
	}
	questID, ok, err := payloadInt64(req.Body, "quest_id")
	if err != nil {
		return StartResult{}, err
	}
	if !ok {
		return StartResult{}, oops.Code("BAD_REQUEST").With("field", "quest_id").Wrap(ErrBadRequest)
	}
	return s.progression.StartOrResume(ctx, ident, questID)
}

// --- Item instances ---

// ListItemInstances returns placements within the caller's unit.
func (s *Service) ListItemInstances(ctx context.Context, ident identity.Identity, opts ListOptions) ([]*ItemInstance, int64, error) {
	req, err := s.chains.instanceRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, 0, err
	}
	return s.instances.List(ctx, req.Scope, opts)
}

// GetItemInstance returns one placement within the caller's unit.
func (s *Service) GetItemInstance(ctx context.Context, ident identity.Identity, id int64) (*ItemInstance, error) {
	req, err := s.chains.instanceRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, err
	}
	return s.instances.Get(ctx, id, req.Scope)
}

// CreateItemInstance places an item in a quest. Leaders always place into
// their own unit.
func (s *Service) CreateItemInstance(ctx context.Context, ident identity.Identity, body map[string]any) (*ItemInstance, error) {
	req, err := s.chains.instanceCreate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	req.Scope.ApplyOverrides(req.Body)

	inst := &ItemInstance{}
	if err := applyInstancePayload(inst, req.Body); err != nil {
		return nil, err
	}
	if err := ValidateDescription(inst.Description); err != nil {
		return nil, err
	}
	if err := ValidateLocation(inst.Location); err != nil {
		return nil, err
	}
	if inst.ItemID == 0 || inst.QuestID == 0 {
		return nil, &ValidationError{Field: "item_id/quest_id", Message: "are required"}
	}
	if err := s.instances.Create(ctx, inst); err != nil {
		return nil, oops.Wrapf(err, "create item instance")
	}
	return inst, nil
}

// UpdateItemInstance modifies a placement within the caller's unit.
func (s *Service) UpdateItemInstance(ctx context.Context, ident identity.Identity, id int64, body map[string]any) (*ItemInstance, error) {
	req, err := s.chains.instanceUpdate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	inst, err := s.instances.Get(ctx, id, req.Scope)
	if err != nil {
		return nil, oops.Wrapf(err, "update item instance %d", id)
	}
	req.Scope.ApplyOverrides(req.Body)
	if err := applyInstancePayload(inst, req.Body); err != nil {
		return nil, err
	}
	if err := ValidateLocation(inst.Location); err != nil {
		return nil, err
	}
	if err := s.instances.Update(ctx, inst, req.Scope); err != nil {
		return nil, oops.Wrapf(err, "update item instance %d", id)
	}
	return inst, nil
}

// DeleteItemInstance removes a placement and its found records, scoped to
// the caller's unit.
func (s *Service) DeleteItemInstance(ctx context.Context, ident identity.Identity, id int64) error {
	req, err := s.chains.instanceDelete.Run(ctx, ident, nil)
	if err != nil {
		return err
	}
	if err := s.instances.Delete(ctx, id, req.Scope); err != nil {
		return oops.Wrapf(err, "delete item instance %d", id)
	}
	return nil
}

// --- Found items ---

// ListFoundItems returns found records visible to the caller: own rows for
// scouts, the whole unit for leaders.
func (s *Service) ListFoundItems(ctx context.Context, ident identity.Identity, opts ListOptions) ([]*FoundItem, int64, error) {
	req, err := s.chains.foundRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, 0, err
	}
	return s.found.List(ctx, req.Scope, opts)
}

// GetFoundItem returns one found record within the caller's visibility.
func (s *Service) GetFoundItem(ctx context.Context, ident identity.Identity, id int64) (*FoundItem, error) {
	req, err := s.chains.foundRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, err
	}
	return s.found.Get(ctx, id, req.Scope)
}

// CreateFoundItem records a find administratively, bypassing the
// progression engine. Admin only.
func (s *Service) CreateFoundItem(ctx context.Context, ident identity.Identity, body map[string]any) (*FoundItem, error) {
	req, err := s.chains.foundCreate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	req.Scope.ApplyOverrides(req.Body)

	f := &FoundItem{}
	if err := applyFoundPayload(f, req.Body); err != nil {
		return nil, err
	}
	if f.ItemInstanceID == 0 {
		return nil, oops.Code("BAD_REQUEST").With("field", "item_instance_id").Wrap(ErrBadRequest)
	}
	if err := s.found.Create(ctx, f); err != nil {
		return nil, oops.Wrapf(err, "create found item")
	}
	return f, nil
}

// DeleteFoundItem removes a found record. Admin only.
func (s *Service) DeleteFoundItem(ctx context.Context, ident identity.Identity, id int64) error {
	if _, err := s.chains.foundDelete.Run(ctx, ident, nil); err != nil {
		return err
	}
	if err := s.found.Delete(ctx, id); err != nil {
		return oops.Wrapf(err, "delete found item %d", id)
	}
	return nil
}

// ReportFound records that the caller located the item instance named in
// the body and reports whether that completed the quest. The chain forces
// the caller's own user id into the payload, so a scout can never report a
// find for someone else.
func (s *Service) ReportFound(ctx context.Context, ident identity.Identity, body map[string]any) (FoundResult, error) {
	req, err := s.chains.foundReport.Run(ctx, ident, body)
	if err != nil {
		return FoundResult{}, err
	}
	req.Scope.ApplyOverrides(req.Body)

	instanceID, ok, err := payloadInt64(req.Body, "item_instance_id")
	if err != nil {
		return FoundResult{}, err
	}
	if !ok {
		return FoundResult{}, oops.Code("BAD_REQUEST").With("field", "item_instance_id").Wrap(ErrBadRequest)
	}
	userID, _, err := payloadInt64(req.Body, policy.KeyUserID)
	if err != nil {
		return FoundResult{}, err
	}
	return s.progression.ReportFound(ctx, userID, instanceID)
}

// --- Quest runs ---

// ListQuestRuns returns quest runs visible to the caller.
func (s *Service) ListQuestRuns(ctx context.Context, ident identity.Identity, opts ListOptions) ([]*QuestRun, int64, error) {
	req, err := s.chains.runRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, 0, err
	}
	return s.runs.List(ctx, req.Scope, opts)
}

// GetQuestRun returns one quest run within the caller's visibility.
func (s *Service) GetQuestRun(ctx context.Context, ident identity.Identity, id int64) (*QuestRun, error) {
	req, err := s.chains.runRead.Run(ctx, ident, nil)
	if err != nil {
		return nil, err
	}
	return s.runs.Get(ctx, id, req.Scope)
}

// CreateQuestRun creates a run administratively. Admin only; normal runs
// are created by the progression engine.
func (s *Service) CreateQuestRun(ctx context.Context, ident identity.Identity, body map[string]any) (*QuestRun, error) {
	req, err := s.chains.runMutate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	req.Scope.ApplyOverrides(req.Body)

	run := &QuestRun{}
	if err := applyRunPayload(run, req.Body); err != nil {
		return nil, err
	}
	if run.QuestID == 0 || run.UserID == 0 {
		return nil, oops.Code("BAD_REQUEST").With("field", "quest_id/user_id").Wrap(ErrBadRequest)
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, oops.Wrapf(err, "create quest run")
	}
	return run, nil
}

// UpdateQuestRun modifies a run administratively. Admin only.
func (s *Service) UpdateQuestRun(ctx context.Context, ident identity.Identity, id int64, body map[string]any) (*QuestRun, error) {
	req, err := s.chains.runMutate.Run(ctx, ident, body)
	if err != nil {
		return nil, err
	}
	run, err := s.runs.Get(ctx, id, req.Scope)
	if err != nil {
		return nil, oops.Wrapf(err, "update quest run %d", id)
	}
	req.Scope.ApplyOverrides(req.Body)
	if err := applyRunPayload(run, req.Body); err != nil {
		return nil, err
	}
	if err := s.runs.Update(ctx, run); err != nil {
		return nil, oops.Wrapf(err, "update quest run %d", id)
	}
	return run, nil
}

// DeleteQuestRun removes a run. Admin only.
func (s *Service) DeleteQuestRun(ctx context.Context, ident identity.Identity, id int64) error {
	if _, err := s.chains.runDelete.Run(ctx, ident, nil); err != nil {
		return err
	}
	if err := s.runs.Delete(ctx, id); err != nil {
		return oops.Wrapf(err, "delete quest run %d", id)
	}
	return nil
}
