package driver

const (
	// AppendPlantQuery stores a plant record behind all existing ones. seq
	// comes from the single :PlantSeq counter node, bumped in the same
	// transaction, so concurrent writers conflict instead of sharing a seq.
	// The counter starts after any plants stored before it existed.
	AppendPlantQuery = `
		OPTIONAL MATCH (existing:Plant)
		WITH coalesce(max(existing.seq), -1) + 1 AS floor
		MERGE (c:PlantSeq {name: 'plants'})
		ON CREATE SET c.next = floor
		WITH c
		SET c.next = c.next + 1
		WITH c.next - 1 AS next
		CREATE (p:Plant {
			id: $id,
			seq: next,
			name: $name,
			scientific_name: $scientific_name,
			image_reference: $image_reference,
			identified_at: $identified_at,
			health_status: $health_status,
			confidence: $confidence,
			care_instructions: $care_instructions,
			watering_frequency: $watering_frequency,
			light_requirement: $light_requirement,
			fertilizing_schedule: $fertilizing_schedule
		})
		RETURN p.id AS id
	`

	ListPlantsQuery = `
		MATCH (p:Plant)
		RETURN p.id AS id,
			p.name AS name,
			p.scientific_name AS scientific_name,
			p.image_reference AS image_reference,
			p.identified_at AS identified_at,
			p.health_status AS health_status,
			p.confidence AS confidence,
			p.care_instructions AS care_instructions,
			p.watering_frequency AS watering_frequency,
			p.light_requirement AS light_requirement,
			p.fertilizing_schedule AS fertilizing_schedule
		ORDER BY p.seq ASC
	`
)
