// Package registration orchestrates retailer and branch registration with
// the tax authority, including supporting document uploads.
package registration

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// Service registers retailers and branches and uploads their documents.
type Service struct {
	gateway challan.AuthorityGateway
	regs    challan.RegistrationRepository
	refs    challan.ReferenceRepository
	store   challan.ObjectStore
	logger  *zap.Logger
}

// NewService creates a new registration Service
func NewService(
	gateway challan.AuthorityGateway,
	regs challan.RegistrationRepository,
	refs challan.ReferenceRepository,
	store challan.ObjectStore,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gateway, regs: regs, refs: refs, store: store, logger: logger}
}

// RegisterRetailer validates the jurisdiction selection, persists the
// registration, and submits it to the authority. An "already exists" answer
// is success and keeps the remote id the authority returns.
func (s *Service) RegisterRetailer(ctx context.Context, reg *challan.RetailerRegistration) (*challan.RetailerRegistration, error) {
	if err := s.validateSelection(ctx, reg); err != nil {
		return nil, err
	}

	reg.Status = challan.RegistrationStatusSubmitted
	if err := s.regs.SaveRetailer(ctx, reg); err != nil {
		return nil, err
	}

	result, err := s.gateway.RegisterRetailer(ctx, reg)
	if err != nil {
		reg.Status = challan.RegistrationStatusFailed
		reg.LastResponse = err.Error()
		if saveErr := s.regs.SaveRetailer(ctx, reg); saveErr != nil {
			s.logger.Error("failed to record registration failure",
				zap.String("retailer_id", reg.ID.String()), zap.Error(saveErr))
		}
		return nil, err
	}

	reg.RemoteRetailerID = result.RemoteID
	reg.LastResponse = result.Raw
	if result.AlreadyExists {
		reg.Status = challan.RegistrationStatusAlreadyExists
	} else {
		reg.Status = challan.RegistrationStatusRegistered
	}
	if err := s.regs.SaveRetailer(ctx, reg); err != nil {
		return nil, err
	}

	s.logger.Info("retailer registered",
		zap.String("retailer_id", reg.ID.String()),
		zap.String("remote_retailer_id", reg.RemoteRetailerID),
		zap.Bool("already_exists", result.AlreadyExists))
	return reg, nil
}

// RegisterBranch submits a branch registration under a registered retailer.
func (s *Service) RegisterBranch(ctx context.Context, retailerID uuid.UUID, branch *challan.BranchRegistration) (*challan.BranchRegistration, error) {
	retailer, err := s.regs.FindRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	if !retailer.Status.IsRegistered() || retailer.RemoteRetailerID == "" {
		return nil, challan.ErrParentNotRegistered
	}

	branch.RetailerID = retailer.ID
	branch.Status = challan.RegistrationStatusSubmitted
	if err := s.regs.SaveBranch(ctx, branch); err != nil {
		return nil, err
	}

	result, err := s.gateway.RegisterBranch(ctx, retailer.RemoteRetailerID, branch)
	if err != nil {
		branch.Status = challan.RegistrationStatusFailed
		branch.LastResponse = err.Error()
		if saveErr := s.regs.SaveBranch(ctx, branch); saveErr != nil {
			s.logger.Error("failed to record branch registration failure",
				zap.String("branch_id", branch.ID.String()), zap.Error(saveErr))
		}
		return nil, err
	}

	branch.RemoteBranchID = result.RemoteID
	branch.LastResponse = result.Raw
	if result.AlreadyExists {
		branch.Status = challan.RegistrationStatusAlreadyExists
	} else {
		branch.Status = challan.RegistrationStatusRegistered
	}
	if err := s.regs.SaveBranch(ctx, branch); err != nil {
		return nil, err
	}
	return branch, nil
}

// UploadDocument stores a supporting file and pushes it to the authority. The
// stored copy survives even when the authority rejects the upload so the
// operator can retry without re-collecting the file.
func (s *Service) UploadDocument(ctx context.Context, retailerID uuid.UUID, category challan.DocumentCategory, fileName string, content []byte) (*challan.RetailerDocument, error) {
	if len(content) == 0 {
		return nil, challan.ErrDocumentEmpty
	}
	if !category.IsValid() {
		return nil, challan.ErrDocumentCategory
	}

	retailer, err := s.regs.FindRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	if retailer.RemoteRetailerID == "" {
		return nil, challan.ErrRetailerNotRegistered
	}

	key := documentKey(retailer.ID, category, fileName)
	if err := s.store.Put(ctx, key, content, contentTypeFor(fileName)); err != nil {
		return nil, fmt.Errorf("registration: failed to store document: %w", err)
	}

	doc := &challan.RetailerDocument{
		RetailerID: retailer.ID,
		Category:   category,
		FileName:   fileName,
		StorageKey: key,
	}

	result, err := s.gateway.UploadDocument(ctx, &challan.DocumentUpload{
		RemoteRetailerID: retailer.RemoteRetailerID,
		Category:         category,
		FileName:         fileName,
		Content:          content,
	})
	if err != nil {
		doc.Acknowledged = false
		doc.LastResponse = err.Error()
		if saveErr := s.regs.SaveDocument(ctx, doc); saveErr != nil {
			s.logger.Error("failed to record document upload failure",
				zap.String("retailer_id", retailer.ID.String()), zap.Error(saveErr))
		}
		return nil, err
	}

	doc.Acknowledged = true
	doc.LastResponse = result.Raw
	if err := s.regs.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListRetailers returns all retailer registrations.
func (s *Service) ListRetailers(ctx context.Context) ([]challan.RetailerRegistration, error) {
	return s.regs.ListRetailers(ctx)
}

// GetRetailer returns one retailer registration.
func (s *Service) GetRetailer(ctx context.Context, id uuid.UUID) (*challan.RetailerRegistration, error) {
	return s.regs.FindRetailer(ctx, id)
}

// ListBranches returns the branches of a retailer.
func (s *Service) ListBranches(ctx context.Context, retailerID uuid.UUID) ([]challan.BranchRegistration, error) {
	return s.regs.ListBranches(ctx, retailerID)
}

// ListDocuments returns the documents uploaded for a retailer.
func (s *Service) ListDocuments(ctx context.Context, retailerID uuid.UUID) ([]challan.RetailerDocument, error) {
	return s.regs.ListDocuments(ctx, retailerID)
}

// validateSelection checks the jurisdiction hierarchy, commission rate scope
// and selected service types against synced reference data.
func (s *Service) validateSelection(ctx context.Context, reg *challan.RetailerRegistration) error {
	division, err := s.refs.FindDivisionByRemoteID(ctx, reg.Jurisdiction.DivisionRemoteID)
	if err != nil {
		return err
	}
	circle, err := s.refs.FindCircleByRemoteID(ctx, reg.Jurisdiction.CircleRemoteID)
	if err != nil {
		return err
	}
	if err := challan.ValidateHierarchy(reg.Jurisdiction, division, circle); err != nil {
		return err
	}

	rate, err := s.refs.FindCommissionRateByRemoteID(ctx, reg.CommissionRateID)
	if err != nil {
		return err
	}
	for _, serviceType := range reg.ServiceTypes {
		if _, err := s.refs.FindServiceTypeByRemoteID(ctx, serviceType); err != nil {
			return err
		}
	}
	if len(reg.ServiceTypes) > 0 {
		covered := false
		for _, serviceType := range reg.ServiceTypes {
			if rate.CoversSelection(reg.Jurisdiction, serviceType) {
				covered = true
				break
			}
		}
		if !covered {
			return challan.ErrRateOutsideSelection
		}
	} else if !rate.CoversSelection(reg.Jurisdiction, "") {
		return challan.ErrRateOutsideSelection
	}
	return nil
}

// documentKey builds a deterministic storage key for a retailer document.
func documentKey(retailerID uuid.UUID, category challan.DocumentCategory, fileName string) string {
	return fmt.Sprintf("documents/%s/%s/%d-%s", retailerID, category, time.Now().Unix(), path.Base(fileName))
}

// contentTypeFor maps common document extensions to MIME types.
func contentTypeFor(fileName string) string {
	switch path.Ext(fileName) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
