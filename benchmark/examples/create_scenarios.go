package main

import (
	"fmt"
	"log"
	"time"

	"github.com/nvr-ai/go-mlbench/benchmark"
	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/models"
	"github.com/nvr-ai/go-mlbench/pacing"
)

// Example program to create and save benchmark scenarios
func main() {
	predefined := &benchmark.PredefinedScenarios{}

	// Every catalog model on the synthetic engine
	catalog := predefined.GetCatalogScenarios(inference.EngineSynthetic, 500)
	if err := benchmark.SaveScenarioSet(catalog, "catalog_scenarios.yaml"); err != nil {
		log.Fatalf("Failed to save catalog scenarios: %v", err)
	}
	fmt.Printf("Saved %d catalog scenarios\n", len(catalog.Scenarios))

	// float32 against int8 through onnxruntime
	quantization := predefined.GetQuantizationScenarios(inference.EngineONNX, 1000)
	if err := benchmark.SaveScenarioSet(quantization, "quantization_scenarios.yaml"); err != nil {
		log.Fatalf("Failed to save quantization scenarios: %v", err)
	}
	fmt.Printf("Saved %d quantization scenarios\n", len(quantization.Scenarios))

	// One model across every engine
	engineSet := predefined.GetEngineScenarios(models.KindCNNFloat32, 1000)
	if err := benchmark.SaveScenarioSet(engineSet, "engine_scenarios.json"); err != nil {
		log.Fatalf("Failed to save engine scenarios: %v", err)
	}
	fmt.Printf("Saved %d engine scenarios\n", len(engineSet.Scenarios))

	// Create custom scenario using builder
	customScenario := benchmark.NewScenarioBuilder("person_detection_paced").
		WithModel(models.KindPersonDetectionInt8).
		WithEngine(inference.EngineONNX).
		WithModelDir("../../models").
		WithIterations(300).
		WithWarmup(20).
		WithCadence(25, 100).
		WithWindowSize(50).
		WithPacing(pacing.ModeRate, 50*time.Millisecond).
		Build()

	customSet := &benchmark.ScenarioSet{
		Name:        "Paced Person Detection",
		Description: "Runs the int8 person detector at a fixed 20 Hz",
		Scenarios:   []benchmark.Config{customScenario},
	}

	if err := benchmark.SaveScenarioSet(customSet, "custom_scenarios.yaml"); err != nil {
		log.Fatalf("Failed to save custom scenarios: %v", err)
	}
	fmt.Printf("Saved %d custom scenarios\n", len(customSet.Scenarios))

	fmt.Println("All scenario files created successfully!")
}
