package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"netchange/backend/internal/config"
	"netchange/backend/internal/logging"
	"netchange/backend/internal/repository"
	"netchange/backend/pkg/models"
)

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to DB
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	if err := repository.InitSchema(ctx, pool); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	store := repository.NewPostgresStore(pool)

	// 1. Ensure a demo device exists
	devices, err := store.ListDevices(ctx)
	if err != nil {
		log.Fatalf("Failed to list devices: %v", err)
	}
	var device *models.Device
	for _, d := range devices {
		if d.Name == "lab-switch-01" {
			device = d
			break
		}
	}
	if device == nil {
		device = &models.Device{
			ID:         uuid.New().String(),
			Name:       "lab-switch-01",
			Hostname:   "lab-switch-01.example.net",
			IPAddress:  "192.0.2.10",
			DeviceType: models.DeviceTypeSwitch,
			Status:     models.DeviceStatusUnknown,
			SSHPort:    22,
			Vendor:     "Cisco",
			Model:      "Catalyst 9300",
			CreatedBy:  "seed-script",
		}
		if err := store.CreateDevice(ctx, device); err != nil {
			log.Fatalf("Failed to create device: %v", err)
		}
		logger.Info("Seeded device", "name", device.Name, "id", device.ID)
	} else {
		logger.Info("Found existing device", "id", device.ID)
	}

	// 2. Check for existing workflows to prevent duplicates
	existingWorkflows, err := store.ListWorkflows(ctx)
	if err != nil {
		log.Fatalf("Failed to list existing workflows: %v", err)
	}

	existingMap := make(map[string]bool)
	for _, w := range existingWorkflows {
		existingMap[w.Name] = true
	}

	// 3. Create a seed workflow exercising all four stages
	if !existingMap["VLAN provisioning"] {
		wf := &models.Workflow{
			ID:          uuid.New().String(),
			Name:        "VLAN provisioning",
			Description: "Creates a VLAN and verifies it is active.",
			Status:      models.WorkflowStatusActive,
			PreCheckCommands: []models.Command{
				{Text: "show version"},
				{Text: "show vlan brief", ValidationPattern: "VLAN", Operator: models.OperatorContains},
			},
			ImplementationCommands: []models.Command{
				{Text: "configure terminal"},
				{Text: "vlan 100"},
				{Text: "end"},
			},
			PostCheckCommands: []models.Command{
				{Text: "show vlan id {{vlan_id}}", ValidationPattern: "VLAN{{vlan_id}}.*active",
					Operator: models.OperatorContains, IsDynamic: true},
			},
			RollbackCommands: []models.Command{
				{Text: "configure terminal"},
				{Text: "no vlan 100"},
				{Text: "end"},
			},
			CreatedBy: "seed-script",
		}
		if err := store.CreateWorkflow(ctx, wf); err != nil {
			log.Printf("Failed to create workflow %s: %v", wf.Name, err)
		} else {
			logger.Info("Seeded workflow", "name", wf.Name, "id", wf.ID)
		}
	} else {
		logger.Info("Skipping existing workflow", "name", "VLAN provisioning")
	}

	// 4. Create a webhook config pointing at a local listener
	webhooks, err := store.ListWebhookConfigs(ctx)
	if err != nil {
		log.Fatalf("Failed to list webhooks: %v", err)
	}
	if len(webhooks) == 0 {
		hook := &models.WebhookConfig{
			ID:        uuid.New().String(),
			Name:      "local-listener",
			URL:       "http://localhost:9000/hooks/netchange",
			Events:    models.EventAll,
			Method:    "POST",
			IsActive:  true,
			CreatedBy: "seed-script",
		}
		if err := store.CreateWebhookConfig(ctx, hook); err != nil {
			log.Printf("Failed to create webhook: %v", err)
		} else {
			logger.Info("Seeded webhook", "name", hook.Name)
		}
	}

	logger.Info("Seeding complete!")
}
