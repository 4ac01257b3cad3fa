package models

// DemoKoi returns the built-in sample collection written on first launch.
// Every call returns fresh values.
func DemoKoi() []Koi {
	return []Koi{
		{
			ID:            "1",
			Name:          "Sakura",
			Variety:       "Kohaku",
			BirthDate:     "2023-03-15",
			CurrentLength: Float(25),
			CurrentWeight: Float(450),
			Photos: []KoiPhoto{
				demoPhoto("1-1", "https://images.unsplash.com/photo-1544551763-46a013bb70d5?w=800&h=600&fit=crop", "2023-03-15", 8, 45, "Just arrived home"),
				demoPhoto("1-2", "https://images.unsplash.com/photo-1520637836862-4d197d17c50a?w=800&h=600&fit=crop", "2023-09-15", 18, 180, "6 months growth"),
				demoPhoto("1-3", "https://images.unsplash.com/photo-1583212292454-1fe6229603b7?w=800&h=600&fit=crop", "2024-03-15", 25, 450, "1 year old - beautiful colors developing"),
			},
		},
		{
			ID:            "2",
			Name:          "Kenzo",
			Variety:       "Showa Sanshoku",
			BirthDate:     "2022-05-20",
			CurrentLength: Float(35),
			CurrentWeight: Float(800),
			Photos: []KoiPhoto{
				demoPhoto("2-1", "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=800&h=600&fit=crop", "2022-05-20", 12, 85, "Young Showa with great potential"),
				demoPhoto("2-2", "https://images.unsplash.com/photo-1571752726703-5e7d1f6a986d?w=800&h=600&fit=crop", "2023-05-20", 28, 520, "1 year - black patterns emerging"),
				demoPhoto("2-3", "https://images.unsplash.com/photo-1559827260-dc66d52bef19?w=800&h=600&fit=crop", "2024-05-20", 35, 800, "2 years - stunning Showa pattern"),
			},
		},
		{
			ID:            "3",
			Name:          "Yuki",
			Variety:       "Platinum Ogon",
			BirthDate:     "2023-08-10",
			CurrentLength: Float(20),
			CurrentWeight: Float(280),
			Photos: []KoiPhoto{
				demoPhoto("3-1", "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=800&h=600&fit=crop", "2023-08-10", 6, 25, "Tiny platinum baby"),
				demoPhoto("3-2", "https://images.unsplash.com/photo-1583212292454-1fe6229603b7?w=800&h=600&fit=crop", "2024-02-10", 15, 150, "6 months - metallic sheen developing"),
				demoPhoto("3-3", "https://images.unsplash.com/photo-1520637836862-4d197d17c50a?w=800&h=600&fit=crop", "2024-08-10", 20, 280, "1 year - beautiful platinum shine"),
			},
		},
	}
}

func demoPhoto(id, uri, date string, length, weight float64, notes string) KoiPhoto {
	return KoiPhoto{
		ID:     id,
		URI:    uri,
		Date:   date,
		Length: Float(length),
		Weight: Float(weight),
		Notes:  notes,
	}
}
